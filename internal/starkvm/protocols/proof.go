package protocols

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
)

// ItemKind tags the payload of a ProofItem.
type ItemKind uint8

const (
	// ItemPaddedHeightLog2 announces the padded trace height.
	ItemPaddedHeightLog2 ItemKind = iota + 1

	// ItemMerkleRoot is a commitment to the trace, a FRI layer, or the
	// composition codeword.
	ItemMerkleRoot

	// ItemFieldElements carries field elements in the clear, used for
	// the final FRI codeword.
	ItemFieldElements

	// ItemFriRoundOpening carries the openings of one FRI query round.
	ItemFriRoundOpening

	// ItemTraceOpening carries the revealed trace rows with their
	// authentication paths.
	ItemTraceOpening
)

// Opening reveals one committed leaf: its index within the layer, its
// field-element values and the Merkle path to the layer root.
type Opening struct {
	Index  uint32
	Values []goldilocks.Element
	Path   []core.Digest
}

// FriRoundOpening holds the three opening sets of one FRI query round:
// a and b on the current layer, c on the next.
type FriRoundOpening struct {
	A []Opening
	B []Opening
	C []Opening
}

// TraceOpening holds the revealed extended trace rows.
type TraceOpening struct {
	Rows []Opening
}

// ProofItem is one entry of the proof stream. Exactly one payload
// field is set, selected by Kind.
type ProofItem struct {
	Kind     ItemKind
	Height   uint8
	Root     core.Digest
	Elements []goldilocks.Element
	FriRound *FriRoundOpening
	Trace    *TraceOpening
}

// InTranscript reports whether the item's encoding is absorbed into
// the Fiat-Shamir channel. Commitments and explicit codewords are;
// openings are implied by the roots and are not.
func (item ProofItem) InTranscript() bool {
	switch item.Kind {
	case ItemMerkleRoot, ItemFieldElements:
		return true
	default:
		return false
	}
}

// TranscriptEncoding returns the bytes absorbed for a transcript-
// relevant item.
func (item ProofItem) TranscriptEncoding() []byte {
	buf := []byte{byte(item.Kind)}
	switch item.Kind {
	case ItemMerkleRoot:
		buf = append(buf, item.Root[:]...)
	case ItemFieldElements:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(item.Elements)))
		buf = appendElements(buf, item.Elements)
	}
	return buf
}

// Proof is the ordered item sequence emitted by the prover.
type Proof struct {
	Items []ProofItem
}

const (
	proofVersion = 1

	// maxCount bounds every decoded length field so a malformed proof
	// cannot force huge allocations.
	maxCount = 1 << 24
)

var proofMagic = [4]byte{'S', 'T', 'K', 'P'}

// MarshalBinary encodes the proof with big-endian framing. The
// encoding round-trips byte-exactly through UnmarshalBinary.
func (p *Proof) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 1024)
	buf = append(buf, proofMagic[:]...)
	buf = append(buf, proofVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Items)))
	for i := range p.Items {
		var err error
		buf, err = appendItem(buf, &p.Items[i])
		if err != nil {
			return nil, fmt.Errorf("proof item %d: %w", i, err)
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a proof. Malformed input yields an error,
// never a panic.
func (p *Proof) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}
	magic, err := r.bytes(4)
	if err != nil {
		return err
	}
	if [4]byte(magic) != proofMagic {
		return fmt.Errorf("bad proof magic")
	}
	version, err := r.byte()
	if err != nil {
		return err
	}
	if version != proofVersion {
		return fmt.Errorf("unsupported proof version %d", version)
	}
	count, err := r.count()
	if err != nil {
		return err
	}
	items := make([]ProofItem, 0, count)
	for i := 0; i < count; i++ {
		item, err := readItem(r)
		if err != nil {
			return fmt.Errorf("proof item %d: %w", i, err)
		}
		items = append(items, item)
	}
	if r.remaining() != 0 {
		return fmt.Errorf("%d trailing bytes after proof", r.remaining())
	}
	p.Items = items
	return nil
}

func appendItem(buf []byte, item *ProofItem) ([]byte, error) {
	buf = append(buf, byte(item.Kind))
	switch item.Kind {
	case ItemPaddedHeightLog2:
		buf = append(buf, item.Height)
	case ItemMerkleRoot:
		buf = append(buf, item.Root[:]...)
	case ItemFieldElements:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(item.Elements)))
		buf = appendElements(buf, item.Elements)
	case ItemFriRoundOpening:
		if item.FriRound == nil {
			return nil, fmt.Errorf("fri round item without payload")
		}
		for _, set := range [][]Opening{item.FriRound.A, item.FriRound.B, item.FriRound.C} {
			buf = appendOpenings(buf, set)
		}
	case ItemTraceOpening:
		if item.Trace == nil {
			return nil, fmt.Errorf("trace item without payload")
		}
		buf = appendOpenings(buf, item.Trace.Rows)
	default:
		return nil, fmt.Errorf("unknown item kind %d", item.Kind)
	}
	return buf, nil
}

func readItem(r *byteReader) (ProofItem, error) {
	var item ProofItem
	kind, err := r.byte()
	if err != nil {
		return item, err
	}
	item.Kind = ItemKind(kind)
	switch item.Kind {
	case ItemPaddedHeightLog2:
		item.Height, err = r.byte()
		return item, err
	case ItemMerkleRoot:
		item.Root, err = r.digest()
		return item, err
	case ItemFieldElements:
		item.Elements, err = readElements(r)
		return item, err
	case ItemFriRoundOpening:
		round := &FriRoundOpening{}
		for _, set := range []*[]Opening{&round.A, &round.B, &round.C} {
			*set, err = readOpenings(r)
			if err != nil {
				return item, err
			}
		}
		item.FriRound = round
		return item, nil
	case ItemTraceOpening:
		rows, err := readOpenings(r)
		if err != nil {
			return item, err
		}
		item.Trace = &TraceOpening{Rows: rows}
		return item, nil
	default:
		return item, fmt.Errorf("unknown item kind %d", kind)
	}
}

func appendElements(buf []byte, elements []goldilocks.Element) []byte {
	for i := range elements {
		b := elements[i].Bytes()
		buf = append(buf, b[:]...)
	}
	return buf
}

func readElements(r *byteReader) ([]goldilocks.Element, error) {
	count, err := r.count()
	if err != nil {
		return nil, err
	}
	elements := make([]goldilocks.Element, count)
	for i := range elements {
		raw, err := r.bytes(goldilocks.Bytes)
		if err != nil {
			return nil, err
		}
		elements[i].SetBytes(raw)
	}
	return elements, nil
}

func appendOpenings(buf []byte, openings []Opening) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(openings)))
	for i := range openings {
		o := &openings[i]
		buf = binary.BigEndian.AppendUint32(buf, o.Index)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(o.Values)))
		buf = appendElements(buf, o.Values)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(o.Path)))
		for _, d := range o.Path {
			buf = append(buf, d[:]...)
		}
	}
	return buf
}

func readOpenings(r *byteReader) ([]Opening, error) {
	count, err := r.count()
	if err != nil {
		return nil, err
	}
	openings := make([]Opening, count)
	for i := range openings {
		o := &openings[i]
		idx, err := r.uint32()
		if err != nil {
			return nil, err
		}
		o.Index = idx
		o.Values, err = readElements(r)
		if err != nil {
			return nil, err
		}
		pathLen, err := r.count()
		if err != nil {
			return nil, err
		}
		o.Path = make([]core.Digest, pathLen)
		for j := range o.Path {
			o.Path[j], err = r.digest()
			if err != nil {
				return nil, err
			}
		}
	}
	return openings, nil
}

// byteReader is a bounds-checked cursor over the encoded proof.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("truncated proof: want %d bytes, have %d", n, r.remaining())
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *byteReader) count() (int, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	if v > maxCount {
		return 0, fmt.Errorf("count %d exceeds limit", v)
	}
	return int(v), nil
}

func (r *byteReader) digest() (core.Digest, error) {
	var d core.Digest
	b, err := r.bytes(len(d))
	if err != nil {
		return d, err
	}
	copy(d[:], b)
	return d, nil
}
