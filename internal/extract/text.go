package extract

import "strings"

// closingIndex returns the index of the delimiter that closes the one at
// s[open], skipping quoted strings and comments. It returns -1 when
// the input ends first or more than maxScan bytes are consumed.
func closingIndex(s string, open, maxScan int) int {
	if open < 0 || open >= len(s) {
		return -1
	}
	end := len(s)
	if maxScan > 0 && open+maxScan < end {
		end = open + maxScan
	}

	depth := 0
	var quote byte
	for i := open; i < end; i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < end && s[i+1] == '/' {
				nl := strings.IndexByte(s[i:end], '\n')
				if nl < 0 {
					return -1
				}
				i += nl
			} else if i+1 < end && s[i+1] == '*' {
				stop := strings.Index(s[i+2:end], "*/")
				if stop < 0 {
					return -1
				}
				i += stop + 3
			}
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on commas that are not nested inside brackets or
// quoted strings.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if start <= len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// orderedSet collects unique strings in insertion order.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (o *orderedSet) add(s string) {
	if s == "" {
		return
	}
	if o.seen == nil {
		o.seen = make(map[string]bool)
	}
	if o.seen[s] {
		return
	}
	o.seen[s] = true
	o.items = append(o.items, s)
}

func (o *orderedSet) list() []string {
	if o.items == nil {
		return []string{}
	}
	return o.items
}
