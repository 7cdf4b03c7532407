package iocli

//go:generate moq -out io_mock.go . IO

// IO терминальный ввод-вывод редактора
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput печатает prompt и возвращает следующую строку без пробелов по краям.
	// В конце ввода возвращает io.EOF.
	ReadInput(prompt string) (string, error)
	// IsTerminal сообщает, подключен ли ввод к терминалу (можно ли задавать вопросы)
	IsTerminal() bool
	Write(p []byte) (n int, err error)
}
