package logger

// Nop discards everything. Fatal still exits so that callers keep their
// control flow.
type Nop struct{}

func NewNop() Nop {
	return Nop{}
}

func (Nop) SetLogLevel(string) {}
func (Nop) GetLogLevel() string { return "info" }
func (Nop) Trace(string, ...any) {}
func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any) {}
func (Nop) Warn(string, ...any) {}
func (Nop) Error(string, error, ...any) {}
func (Nop) Fatal(string, error, ...any) { exit(1) }
