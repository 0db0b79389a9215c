package request

// Default parser limits.
const (
	DefaultMaxHeaderBytes = 1 << 20  // 1 MiB
	DefaultMaxBodyBytes   = 10 << 20 // 10 MiB
)

// Limits bounds the size of a parsed request.
// Zero values fall back to the defaults.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

func (l Limits) headerBytes() int {
	if l.MaxHeaderBytes <= 0 {
		return DefaultMaxHeaderBytes
	}
	return l.MaxHeaderBytes
}

func (l Limits) bodyBytes() int64 {
	if l.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return l.MaxBodyBytes
}
