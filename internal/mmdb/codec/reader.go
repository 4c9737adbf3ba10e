package codec

import (
	"strconv"
)

// Value position sentinels. A field whose value is stored outside the
// buffer has one of these in place of its start offset.
const (
	ValName      int32 = -1
	ValJournal   int32 = -2
	ValBookTitle int32 = -3
	ValYear      int32 = -4
)

// Resolver supplies the values of placeholder fields.
type Resolver interface {
	// NameAt returns the i-th author or editor name of the record.
	NameAt(i int) string
	Journal() string
	BookTitle() string
	Year() string
}

// Field is a decoded field of a record. It is computed per access and never
// stored.
type Field struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      string            `json:"value"`
}

// FieldReader answers field queries against one encoded record. The index
// arrays are built by a single scan in NewFieldReader.
type FieldReader struct {
	buf    []byte
	res    Resolver
	tags   []int32
	values []int32
}

// NewFieldReader scans buf once. res may be nil for records without
// placeholders.
func NewFieldReader(buf []byte, res Resolver) *FieldReader {
	r := &FieldReader{buf: buf, res: res}
	r.index()
	return r
}

func (r *FieldReader) index() {
	const (
		text = iota
		open
		inTag
		inQuote
	)
	tags := make([]int32, 0, 16)
	values := make([]int32, 0, 32)
	var names int32
	level, state := 0, text
	for pos := 0; pos < len(r.buf); {
		b := r.buf[pos]
		pos++
		switch state {
		case text:
			if b == '<' {
				state = open
			}
		case open:
			if b == '/' {
				level--
				if level == 1 {
					values = append(values, int32(pos-2))
				}
				state = text
				continue
			}
			level++
			if level == 2 {
				tags = append(tags, int32(pos-1))
				switch b {
				case TagAuthor, TagEditor:
					values = append(values, ValName, names)
					names++
				case TagJournal:
					values = append(values, ValJournal, 0)
				case TagBookTitle:
					values = append(values, ValBookTitle, 0)
				case TagYear:
					values = append(values, ValYear, 0)
				}
			}
			state = inTag
		case inTag:
			switch b {
			case '/':
				level--
				state = text
			case '>':
				state = text
				if level == 2 {
					values = append(values, int32(pos))
				}
			case '"':
				state = inQuote
			}
		case inQuote:
			if b == '"' {
				state = inTag
			}
		}
	}
	r.tags = tags
	r.values = values
}

// NumberOfFields returns the number of fields of the record.
func (r *FieldReader) NumberOfFields() int {
	return len(r.tags)
}

// Tag returns the element name of field i.
func (r *FieldReader) Tag(i int) string {
	return tagAt(r.buf, int(r.tags[i]))
}

// Value returns the value of field i. Literal values are returned as stored,
// i.e. escaped and with any nested markup.
func (r *FieldReader) Value(i int) string {
	start, end := r.values[2*i], r.values[2*i+1]
	if start >= 0 {
		return string(r.buf[start:end])
	}
	if r.res == nil {
		return ""
	}
	switch start {
	case ValName:
		return r.res.NameAt(int(end))
	case ValJournal:
		return r.res.Journal()
	case ValBookTitle:
		return r.res.BookTitle()
	case ValYear:
		return r.res.Year()
	}
	return ""
}

// Text returns the value of field i as plain text.
func (r *FieldReader) Text(i int) string {
	if r.values[2*i] >= 0 {
		return PlainText(r.Value(i))
	}
	return r.Value(i)
}

// IsPlaceholder reports whether field i is resolved outside the buffer.
func (r *FieldReader) IsPlaceholder(i int) bool {
	return r.values[2*i] < 0
}

// Attributes returns the attributes of field i, or nil if it has none.
func (r *FieldReader) Attributes(i int) map[string]string {
	return collectAttributes(r.buf, skipTag(r.buf, int(r.tags[i])))
}

// HasAttributes reports whether field i carries any attribute.
func (r *FieldReader) HasAttributes(i int) bool {
	pos := skipTag(r.buf, int(r.tags[i]))
	return pos < len(r.buf) && isNameStart(r.buf[pos])
}

// Field returns field i.
func (r *FieldReader) Field(i int) Field {
	return Field{
		Tag:        r.Tag(i),
		Attributes: r.Attributes(i),
		Value:      r.Value(i),
	}
}

// IndexOf returns the first field at or after from with the given tag, or -1.
func (r *FieldReader) IndexOf(tag string, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(r.tags); i++ {
		if tagIs(r.buf, int(r.tags[i]), tag) {
			return i
		}
	}
	return -1
}

// Contains reports whether the record has a field with the given tag.
func (r *FieldReader) Contains(tag string) bool {
	return r.IndexOf(tag, 0) >= 0
}

// ContainsValue reports whether some field with the given tag has value.
func (r *FieldReader) ContainsValue(tag, value string) bool {
	for i := r.IndexOf(tag, 0); i >= 0; i = r.IndexOf(tag, i+1) {
		if r.Value(i) == value {
			return true
		}
	}
	return false
}

// ValueOf returns the value of the first field with the given tag.
func (r *FieldReader) ValueOf(tag string) (string, bool) {
	i := r.IndexOf(tag, 0)
	if i < 0 {
		return "", false
	}
	return r.Value(i), true
}

// ValuesOf returns the values of all fields with the given tag.
func (r *FieldReader) ValuesOf(tag string) []string {
	var out []string
	for i := r.IndexOf(tag, 0); i >= 0; i = r.IndexOf(tag, i+1) {
		out = append(out, r.Value(i))
	}
	return out
}

// AttributesOf returns the attributes of the first field with the given tag.
func (r *FieldReader) AttributesOf(tag string) (map[string]string, bool) {
	i := r.IndexOf(tag, 0)
	if i < 0 {
		return nil, false
	}
	return r.Attributes(i), true
}

// Fields returns all fields whose tag is one of tags, in record order. With
// no tags every field is returned.
func (r *FieldReader) Fields(tags ...string) []Field {
	out := make([]Field, 0, len(r.tags))
	for i := range r.tags {
		if len(tags) > 0 && !r.tagIn(i, tags) {
			continue
		}
		out = append(out, r.Field(i))
	}
	return out
}

// Count returns the number of fields whose tag is one of tags.
func (r *FieldReader) Count(tags ...string) int {
	n := 0
	for i := range r.tags {
		if r.tagIn(i, tags) {
			n++
		}
	}
	return n
}

func (r *FieldReader) tagIn(i int, tags []string) bool {
	for _, t := range tags {
		if tagIs(r.buf, int(r.tags[i]), t) {
			return true
		}
	}
	return false
}

// RootTag returns the element name of the record itself.
func (r *FieldReader) RootTag() string {
	return RootTag(r.buf)
}

// RootAttributes returns the attributes stored on the record element.
func (r *FieldReader) RootAttributes() map[string]string {
	if len(r.buf) < 2 {
		return nil
	}
	return collectAttributes(r.buf, skipTag(r.buf, 1))
}

// RootTag returns the element name of an encoded record.
func RootTag(buf []byte) string {
	if len(buf) < 2 {
		return ""
	}
	return tagAt(buf, 1)
}

// tagAt returns the element name starting at pos, expanding placeholders.
func tagAt(buf []byte, pos int) string {
	if pos < len(buf) {
		if c := buf[pos]; c >= TagAuthor && c <= TagYear {
			return placeholderNames[c-TagAuthor]
		}
	}
	end := pos
	for end < len(buf) && !isTagEnd(buf[end]) {
		end++
	}
	return string(buf[pos:end])
}

func tagIs(buf []byte, pos int, tag string) bool {
	if pos < len(buf) {
		if c := buf[pos]; c >= TagAuthor && c <= TagYear {
			return placeholderNames[c-TagAuthor] == tag
		}
	}
	end := pos + len(tag)
	if end > len(buf) || string(buf[pos:end]) != tag {
		return false
	}
	return end == len(buf) || isTagEnd(buf[end])
}

func isTagEnd(c byte) bool {
	return c == ' ' || c == '/' || c == '>'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// skipTag returns the position after the element name starting at pos and
// any following blanks.
func skipTag(buf []byte, pos int) int {
	for pos < len(buf) && !isTagEnd(buf[pos]) {
		pos++
	}
	for pos < len(buf) && buf[pos] == ' ' {
		pos++
	}
	return pos
}

// collectAttributes parses name="value" pairs from pos up to the end of the
// start tag.
func collectAttributes(buf []byte, pos int) map[string]string {
	var attrs map[string]string
	for pos < len(buf) && isNameStart(buf[pos]) {
		start := pos
		for pos < len(buf) && buf[pos] != '=' {
			pos++
		}
		key := string(buf[start:pos])
		pos += 2 // ="
		if pos > len(buf) {
			break
		}
		vstart := pos
		for pos < len(buf) && buf[pos] != '"' {
			pos++
		}
		if attrs == nil {
			attrs = make(map[string]string, 2)
		}
		attrs[key] = Unescape(string(buf[vstart:pos]))
		pos++
		for pos < len(buf) && buf[pos] == ' ' {
			pos++
		}
	}
	return attrs
}

// FormatMdate renders yyyymmdd as yyyy-mm-dd.
func FormatMdate(mdate int) string {
	if mdate <= 0 {
		return ""
	}
	y, m, d := mdate/10000, mdate/100%100, mdate%100
	return pad(y, 4) + "-" + pad(m, 2) + "-" + pad(d, 2)
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
