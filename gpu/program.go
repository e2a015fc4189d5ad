package gpu

// ProgramStore compiles and links the particle program. It never reads shader sources itself.
type ProgramStore struct {
	dev     Device
	current ProgramHandle
}

func NewProgramStore(dev Device) *ProgramStore {
	return &ProgramStore{dev: dev}
}

// Compile compiles one stage. A rejected shader is deleted before the CompileError is returned.
func (s *ProgramStore) Compile(source string, stage ShaderStage) (ShaderHandle, error) {
	shader, ok, log := s.dev.CompileShader(stage, source)
	if !ok {
		if shader != 0 {
			s.dev.DeleteShader(shader)
		}
		return 0, &CompileError{Stage: stage, Log: log}
	}
	return shader, nil
}

// Link links a vertex and a fragment shader. On failure the returned handle is still valid and
// must be passed to Delete by the caller.
func (s *ProgramStore) Link(vertex, fragment ShaderHandle) (ProgramHandle, error) {
	program, ok, log := s.dev.LinkProgram(vertex, fragment)
	if !ok {
		return program, &LinkError{Log: log}
	}
	return program, nil
}

// Use makes program the target of subsequent uniform writes and draws.
func (s *ProgramStore) Use(program ProgramHandle) {
	if s.current == program {
		return
	}
	s.dev.UseProgram(program)
	s.current = program
}

// Current is the program last passed to Use.
func (s *ProgramStore) Current() ProgramHandle { return s.current }

func (s *ProgramStore) Delete(program ProgramHandle) {
	if program == 0 {
		return
	}
	if s.current == program {
		s.current = 0
	}
	s.dev.DeleteProgram(program)
}

// Build compiles both stages and links them. Intermediate shaders are always deleted, and a
// program that fails to link is deleted too, so a failed Build leaves nothing behind.
func (s *ProgramStore) Build(vertexSource, fragmentSource string) (ProgramHandle, error) {
	vs, err := s.Compile(vertexSource, StageVertex)
	if err != nil {
		return 0, err
	}
	defer s.dev.DeleteShader(vs)

	fs, err := s.Compile(fragmentSource, StageFragment)
	if err != nil {
		return 0, err
	}
	defer s.dev.DeleteShader(fs)

	program, err := s.Link(vs, fs)
	if err != nil {
		s.Delete(program)
		return 0, err
	}
	return program, nil
}
