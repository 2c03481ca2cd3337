package resp

import "bytes"

// Marker bytes identifying the kind of a frame on the wire
const (
	TypeStatus    = '+'
	TypeError     = '-'
	TypeInteger   = ':'
	TypeBulk      = '$'
	TypeMultiBulk = '*'
)

// Reply is one of the five RESP2 reply kinds.
// The set is closed: only the variants declared in this package implement it
type Reply interface {
	// Type returns the marker byte of the reply
	Type() byte
	reply()
}

// StatusReply is a single-line status such as OK or PONG
type StatusReply struct {
	Text string
}

// ErrorReply is a single-line error message
type ErrorReply struct {
	Text string
}

// IntegerReply is a signed 64-bit integer
type IntegerReply struct {
	Value int64
}

// BulkReply is a binary safe string. IsNull marks the null bulk ($-1),
// which is not the same as an empty payload
type BulkReply struct {
	Data   []byte
	IsNull bool
}

// MultiBulkReply is an ordered list of nested replies. IsNull marks the null array (*-1)
type MultiBulkReply struct {
	Replies []Reply
	IsNull  bool
}

func (StatusReply) Type() byte    { return TypeStatus }
func (ErrorReply) Type() byte     { return TypeError }
func (IntegerReply) Type() byte   { return TypeInteger }
func (BulkReply) Type() byte      { return TypeBulk }
func (MultiBulkReply) Type() byte { return TypeMultiBulk }

func (StatusReply) reply()    {}
func (ErrorReply) reply()     {}
func (IntegerReply) reply()   {}
func (BulkReply) reply()      {}
func (MultiBulkReply) reply() {}

// Error lets an ErrorReply be returned as a Go error
func (e ErrorReply) Error() string {
	return e.Text
}

// String returns the payload as a string. Null bulks give ""
func (b BulkReply) String() string {
	return string(b.Data)
}

// Command is a single request: an ordered list of binary strings.
// On the wire it is a multi-bulk whose elements are all bulks
type Command struct {
	Args [][]byte
}

// NewCommand builds a Command from raw arguments
func NewCommand(args ...[]byte) Command {
	return Command{Args: args}
}

// CommandOf builds a Command from string arguments
func CommandOf(args ...string) Command {
	cmd := Command{Args: make([][]byte, len(args))}
	for i, a := range args {
		cmd.Args[i] = []byte(a)
	}
	return cmd
}

// Name returns the first argument, or "" for an empty command
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return string(c.Args[0])
}

// Len returns the number of arguments including the name
func (c Command) Len() int {
	return len(c.Args)
}

// Strings returns the arguments converted to strings
func (c Command) Strings() []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = string(a)
	}
	return out
}

// Reply converts the command into the multi-bulk reply with the same wire shape
func (c Command) Reply() MultiBulkReply {
	replies := make([]Reply, len(c.Args))
	for i, a := range c.Args {
		replies[i] = BulkReply{Data: a}
	}
	return MultiBulkReply{Replies: replies}
}

// Equal reports whether two replies are structurally identical.
// Null values are only equal to null values of the same kind
func Equal(a, b Reply) bool {
	switch x := a.(type) {
	case StatusReply:
		y, ok := b.(StatusReply)
		return ok && x.Text == y.Text
	case ErrorReply:
		y, ok := b.(ErrorReply)
		return ok && x.Text == y.Text
	case IntegerReply:
		y, ok := b.(IntegerReply)
		return ok && x.Value == y.Value
	case BulkReply:
		y, ok := b.(BulkReply)
		if !ok || x.IsNull != y.IsNull {
			return false
		}
		return x.IsNull || bytes.Equal(x.Data, y.Data)
	case MultiBulkReply:
		y, ok := b.(MultiBulkReply)
		if !ok || x.IsNull != y.IsNull || len(x.Replies) != len(y.Replies) {
			return false
		}
		for i := range x.Replies {
			if !Equal(x.Replies[i], y.Replies[i]) {
				return false
			}
		}
		return true
	}
	return false
}
