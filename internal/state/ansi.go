package state

// stripper removes ANSI escape sequences from a byte stream. It carries
// parser state across calls, so a sequence split between two chunks is
// still removed and classification does not depend on how the stream was
// chunked.
type stripper struct {
	state stripState
}

type stripState int

const (
	stText stripState = iota
	stEsc             // saw ESC
	stCSI             // inside ESC [ ... sequence
	stOSC             // inside ESC ] ... sequence
	stOSCEsc          // inside OSC, saw ESC (possible ST terminator)
	stSkipOne         // ESC ( / ESC ) etc: one designator byte follows
)

// Strip returns chunk with escape sequences removed. The returned slice
// is freshly allocated.
func (s *stripper) Strip(chunk []byte) []byte {
	out := make([]byte, 0, len(chunk))
	for _, b := range chunk {
		switch s.state {
		case stText:
			if b == 0x1B {
				s.state = stEsc
			} else {
				out = append(out, b)
			}
		case stEsc:
			switch {
			case b == '[':
				s.state = stCSI
			case b == ']':
				s.state = stOSC
			case b == '(' || b == ')' || b == '#' || b == '%':
				s.state = stSkipOne
			case b == 0x1B:
				// stay in stEsc
			default:
				// Two-byte sequence (ESC c, ESC 7, ...): done.
				s.state = stText
			}
		case stCSI:
			// Parameter bytes 0x30-0x3F and intermediates 0x20-0x2F are
			// consumed; a final byte 0x40-0x7E ends the sequence.
			if b >= 0x40 && b <= 0x7E {
				s.state = stText
			}
		case stOSC:
			if b == 0x07 {
				s.state = stText
			} else if b == 0x1B {
				s.state = stOSCEsc
			}
		case stOSCEsc:
			// ESC \ is the string terminator; anything else stays in the
			// OSC body.
			if b == '\\' {
				s.state = stText
			} else if b != 0x1B {
				s.state = stOSC
			}
		case stSkipOne:
			s.state = stText
		}
	}
	return out
}
