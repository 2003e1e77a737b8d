// Package keypad maps letters to their telephone keypad digits.
//
// Reservation lookup keys are the keypad encoding of the displayed PNR
// (AI1234 is stored under 241234), so both the voice normalizer and the
// record directory need the same mapping.
package keypad

// digitFor covers A-Z on the standard 12-key layout (Q on 7, Z on 9).
var digitFor = map[rune]rune{
	'A': '2', 'B': '2', 'C': '2',
	'D': '3', 'E': '3', 'F': '3',
	'G': '4', 'H': '4', 'I': '4',
	'J': '5', 'K': '5', 'L': '5',
	'M': '6', 'N': '6', 'O': '6',
	'P': '7', 'Q': '7', 'R': '7', 'S': '7',
	'T': '8', 'U': '8', 'V': '8',
	'W': '9', 'X': '9', 'Y': '9', 'Z': '9',
}

// Encode replaces every letter in s with its keypad digit. Digits pass
// through unchanged; any other rune is dropped.
func Encode(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		switch {
		case r >= '0' && r <= '9':
			out = append(out, r)
		default:
			if d, ok := digitFor[r]; ok {
				out = append(out, d)
			}
		}
	}
	return string(out)
}
