// Package codec implements the compact byte encoding of DBLP records.
//
// A record is stored as the XML of its element with three changes: the key
// and mdate attributes of the root are kept outside the buffer, author and
// editor fields are reduced to the self-closing placeholders <0/> and <1/>
// whose values come from the record's name list, and the first journal,
// booktitle and year fields become <2/>, <3/> and <4/> whose values come from
// the record's venue and year references. FieldReader decodes the buffer on
// demand and Rebuild restores the full XML.
package codec

// Placeholder tags. Each is a single digit so that the decoder can tell them
// apart from element names after one byte.
const (
	TagAuthor    byte = '0'
	TagEditor    byte = '1'
	TagJournal   byte = '2'
	TagBookTitle byte = '3'
	TagYear      byte = '4'
)

var placeholderNames = [...]string{"author", "editor", "journal", "booktitle", "year"}

// PlaceholderFor returns the placeholder byte for an element name.
func PlaceholderFor(tag string) (byte, bool) {
	for i, n := range placeholderNames {
		if n == tag {
			return byte('0' + i), true
		}
	}
	return 0, false
}

// Attr is one attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Writer accumulates the encoding of one record. The zero value is ready to
// use; Reset prepares it for the next record.
type Writer struct {
	buf []byte
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns a copy of the encoded record.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// OpenRoot writes "<tag" for the record element. Attributes follow through
// Attr and the start tag is finished by EndStart.
func (w *Writer) OpenRoot(tag string) {
	w.buf = append(w.buf, '<')
	w.buf = append(w.buf, tag...)
}

// Attr writes ` name="value"` with value escaped.
func (w *Writer) Attr(name, value string) {
	w.buf = append(w.buf, ' ')
	w.buf = append(w.buf, name...)
	w.buf = append(w.buf, '=', '"')
	w.buf = append(w.buf, EscapeAttr(value)...)
	w.buf = append(w.buf, '"')
}

func (w *Writer) EndStart() {
	w.buf = append(w.buf, '>')
}

// Placeholder writes a self-closing placeholder element.
func (w *Writer) Placeholder(code byte, attrs []Attr) {
	w.buf = append(w.buf, '<', code)
	for _, a := range attrs {
		w.Attr(a.Name, a.Value)
	}
	w.buf = append(w.buf, '/', '>')
}

// StartElement writes a literal start tag.
func (w *Writer) StartElement(tag string, attrs []Attr) {
	w.buf = append(w.buf, '<')
	w.buf = append(w.buf, tag...)
	for _, a := range attrs {
		w.Attr(a.Name, a.Value)
	}
	w.buf = append(w.buf, '>')
}

// EndElement writes a literal end tag. Literal elements are never written in
// self-closing form.
func (w *Writer) EndElement(tag string) {
	w.buf = append(w.buf, '<', '/')
	w.buf = append(w.buf, tag...)
	w.buf = append(w.buf, '>')
}

// Text writes character data escaped for '&', '<' and '>'.
func (w *Writer) Text(s string) {
	w.buf = append(w.buf, EscapeText(s)...)
}

// Mark returns the current length so a field can later be removed with Cut.
func (w *Writer) Mark() int {
	return len(w.buf)
}

// Cut removes buf[from:to].
func (w *Writer) Cut(from, to int) {
	w.buf = append(w.buf[:from], w.buf[to:]...)
}

// RenameRoot replaces the root element name written by OpenRoot.
func (w *Writer) RenameRoot(old, tag string) {
	if len(w.buf) < 1+len(old) || string(w.buf[1:1+len(old)]) != old {
		return
	}
	rest := append([]byte(tag), w.buf[1+len(old):]...)
	w.buf = append(w.buf[:1], rest...)
}

// Slice returns buf[from:to] without copying.
func (w *Writer) Slice(from, to int) []byte {
	return w.buf[from:to]
}
