package platforms

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is one rendered panel, independent of the chat platform it is posted to.
type Message struct {
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
}
