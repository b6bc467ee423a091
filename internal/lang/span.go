package lang

import "fmt"

// Span is a half-open source range, carried on every expression/pattern for
// error reporting. It is erased (along with comments) by normalization
// before hashing (spec.md §4.2).
type Span struct {
	File                         string
	StartLine, StartCol          int
	EndLine, EndCol              int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Zero is the span used for synthetic nodes (builtins, desugared forms).
var Zero = Span{}
