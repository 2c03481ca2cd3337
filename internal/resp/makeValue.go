package resp

import "fmt"

// MakeStatus construct StatusReply from string
func MakeStatus(s string) Reply {
	return StatusReply{Text: s}
}

// MakeError construct ErrorReply from string
func MakeError(s string) Reply {
	return ErrorReply{Text: s}
}

// MakeErrorWrongNumberOfArguments construct ErrorReply that command had wrong number of arguments
func MakeErrorWrongNumberOfArguments(cmd string) Reply {
	return MakeError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", cmd))
}

// MakeInteger construct IntegerReply from int64
func MakeInteger(n int64) Reply {
	return IntegerReply{Value: n}
}

// MakeBulk construct BulkReply from bytes. A nil slice is an empty bulk, not a null one
func MakeBulk(b []byte) Reply {
	if b == nil {
		b = []byte{}
	}
	return BulkReply{Data: b}
}

// MakeBulkString construct BulkReply from string
func MakeBulkString(s string) Reply {
	return BulkReply{Data: []byte(s)}
}

// MakeNilBulk construct null BulkReply
func MakeNilBulk() Reply {
	return BulkReply{IsNull: true}
}

// MakeMultiBulk creates a multi-bulk containing the provided elements
func MakeMultiBulk(replies ...Reply) Reply {
	if replies == nil {
		replies = []Reply{}
	}
	return MultiBulkReply{Replies: replies}
}

// MakeNilMultiBulk construct null MultiBulkReply
func MakeNilMultiBulk() Reply {
	return MultiBulkReply{IsNull: true}
}
