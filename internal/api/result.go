package api

// ResultKind tags the shape of a Result.
type ResultKind int

const (
	KindText ResultKind = iota
	KindStructured
	KindBinary
)

func (k ResultKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Result is what an Operation returns on success. Build one with Text,
// Structured or Binary; the zero value is an empty Text result.
type Result struct {
	kind     ResultKind
	text     string
	value    interface{}
	data     []byte
	mimeType string
}

// Text wraps a string that is returned to the caller as is.
func Text(s string) Result {
	return Result{kind: KindText, text: s}
}

// Structured wraps a JSON-encodable value.
func Structured(v interface{}) Result {
	return Result{kind: KindStructured, value: v}
}

// Binary wraps raw bytes. meta is an optional JSON-encodable description
// sent alongside the data (title, original size and so on).
func Binary(data []byte, mimeType string, meta interface{}) Result {
	return Result{kind: KindBinary, data: data, mimeType: mimeType, value: meta}
}

func (r Result) Kind() ResultKind { return r.kind }

// TextValue returns the string of a Text result.
func (r Result) TextValue() string { return r.text }

// Value returns the value of a Structured result, or the metadata of a
// Binary result.
func (r Result) Value() interface{} { return r.value }

// Bytes returns the data of a Binary result.
func (r Result) Bytes() []byte { return r.data }

// MIMEType returns the MIME type of a Binary result.
func (r Result) MIMEType() string { return r.mimeType }
