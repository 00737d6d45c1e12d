package sipmsg

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	lineEnd       = "\r\n"
	blockBoundary = "\r\n\r\n"
)

// Deconstructs a datagram into start line, header fields and body.
// Anything that cannot be understood yields ErrMalformed.
func Parse(datagram []byte) (msg *Message, err error) {
	header, body, found := strings.Cut(string(datagram), blockBoundary)
	if !found {
		err = fmt.Errorf("%w: no header/body boundary", ErrMalformed)
		return
	}
	if strings.TrimSpace(header) == "" {
		err = fmt.Errorf("%w: empty header block", ErrMalformed)
		return
	}

	lines := strings.Split(header, lineEnd)

	parsed := &Message{
		StartLine: lines[0],
		Body:      body,
	}
	err = parsed.classify()
	if err != nil {
		return
	}

	for _, line := range lines[1:] {
		err = parsed.Add(line)
		if err != nil {
			return
		}
	}

	msg = parsed
	return
}

// Determines request/status from the start line tokens
func (msg *Message) classify() (err error) {
	tokens := strings.Fields(msg.StartLine)
	if len(tokens) == 0 {
		err = fmt.Errorf("%w: empty start line", ErrMalformed)
		return
	}

	first := strings.ToUpper(tokens[0])
	if strings.HasPrefix(first, "SIP/2.0") {
		if len(tokens) < 2 {
			err = fmt.Errorf("%w: status line without code: %q", ErrMalformed, msg.StartLine)
			return
		}
		code, convErr := strconv.Atoi(tokens[1])
		if convErr != nil {
			err = fmt.Errorf("%w: non-numeric status code %q", ErrMalformed, tokens[1])
			return
		}
		msg.Kind = KindStatus
		msg.StatusCode = code
		return
	}

	msg.Kind = KindRequest
	msg.Method = first
	return
}

// Starts a new outbound request
func NewRequest(method, uri string) (msg *Message) {
	msg = &Message{
		StartLine: fmt.Sprintf("%s %s SIP/2.0", method, uri),
		Kind:      KindRequest,
		Method:    strings.ToUpper(method),
	}
	return
}

// Parses and appends a raw header field line
func (msg *Message) Add(raw string) (err error) {
	field, err := ParseField(raw)
	if err != nil {
		return
	}

	if msg.index == nil {
		msg.index = make(map[string][]int)
	}
	key := strings.ToLower(field.Name)
	msg.index[key] = append(msg.index[key], len(msg.fields))
	msg.fields = append(msg.fields, field)
	return
}

// First header field with the given (case-insensitive) name
func (msg *Message) First(name string) (field HeaderField, found bool) {
	positions := msg.index[strings.ToLower(name)]
	if len(positions) == 0 {
		return
	}
	field = msg.fields[positions[0]]
	found = true
	return
}

// All header fields with the given (case-insensitive) name, in order
func (msg *Message) All(name string) (fields []HeaderField) {
	for _, position := range msg.index[strings.ToLower(name)] {
		fields = append(fields, msg.fields[position])
	}
	return
}

// All header fields in wire order
func (msg *Message) Fields() (fields []HeaderField) {
	fields = append(fields, msg.fields...)
	return
}

// Wire form: start line, every field in order, blank line, body.
// Content-Length is whatever the caller added, it is never computed here.
func (msg *Message) Bytes() (packet []byte) {
	var builder strings.Builder
	builder.WriteString(msg.StartLine)
	builder.WriteString(lineEnd)
	for _, field := range msg.fields {
		builder.WriteString(field.Raw)
		builder.WriteString(lineEnd)
	}
	builder.WriteString(lineEnd)
	builder.WriteString(msg.Body)

	packet = []byte(builder.String())
	return
}

// Response carrying raw copies of the mandatory fields of the request
func BuildResponse(orig *Message, code int, text string) (resp *Message, err error) {
	resp = &Message{
		StartLine:  fmt.Sprintf("SIP/2.0 %d %s", code, text),
		Kind:       KindStatus,
		StatusCode: code,
	}

	for _, name := range MandatoryFields {
		field, found := orig.First(name)
		if !found {
			resp = nil
			err = fmt.Errorf("%w: request lacks mandatory field %s", ErrMalformed, name)
			return
		}

		err = resp.Add(field.Raw)
		if err != nil {
			resp = nil
			return
		}
	}
	return
}
