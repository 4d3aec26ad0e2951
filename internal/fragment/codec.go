// Package fragment implements the split/join codec between a serialized
// application message and a numbered, fixed-size fragment set (spec.md
// §4.A). It never holds any session state; internal/session owns that.
package fragment

import (
	"firestige.xyz/relay/internal/protocol"
)

// Serialize splits m's canonical wire encoding into fragments of at most
// protocol.FragmentDSize bytes each. An empty encoding produces no
// fragments — disassembling an empty message is the caller's mistake to
// avoid, per spec.md §4.A.
func Serialize[T any](sessionId uint64, m protocol.Message[T]) ([]protocol.Fragment, error) {
	b, err := protocol.Serialize(m)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	d := protocol.FragmentDSize
	total := (len(b) + d - 1) / d
	frags := make([]protocol.Fragment, total)
	for i := 0; i < total; i++ {
		start := i * d
		end := start + d
		if end > len(b) {
			end = len(b)
		}
		var frag protocol.Fragment
		frag.SessionId = sessionId
		frag.Index = uint64(i)
		frag.Total = uint64(total)
		frag.Length = end - start
		copy(frag.Data[:], b[start:end])
		frags[i] = frag
	}
	return frags, nil
}

// Deserialize concatenates fragments in ascending index order and decodes
// the result as a Message[T]. Fragments need not already be sorted.
func Deserialize[T any](frags []protocol.Fragment) (protocol.Message[T], error) {
	ordered := make([]protocol.Fragment, len(frags))
	copy(ordered, frags)
	sortByIndex(ordered)

	total := 0
	for _, f := range ordered {
		total += f.Length
	}
	buf := make([]byte, 0, total)
	for _, f := range ordered {
		buf = append(buf, f.Payload()...)
	}
	return protocol.Deserialize[T](buf)
}

func sortByIndex(frags []protocol.Fragment) {
	for i := 1; i < len(frags); i++ {
		for j := i; j > 0 && frags[j].Index < frags[j-1].Index; j-- {
			frags[j], frags[j-1] = frags[j-1], frags[j]
		}
	}
}
