package domain

type endpointEventKind uint8

const (
	// unknown
	unknown endpointEventKind = iota

	// I/O
	evReadError
	evWriteError

	// ctrl
	evClose // セッション終了
)

type endpointEvent struct {
	kind endpointEventKind
	err  error
}
