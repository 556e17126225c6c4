package protocols

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// ProofStream couples the proof item sequence with the Fiat-Shamir
// channel. The prover enqueues items as it produces them; the verifier
// dequeues the same sequence. Either way, transcript-relevant items
// are absorbed at the moment they cross the stream, so challenges
// squeezed in between agree on both sides.
type ProofStream struct {
	items   []ProofItem
	channel *utils.Channel
	readPos int
}

// NewProofStream creates an empty prover-side stream over the channel.
func NewProofStream(channel *utils.Channel) *ProofStream {
	return &ProofStream{channel: channel}
}

// NewProofReader creates a verifier-side stream that replays the
// proof's items over the channel.
func NewProofReader(proof *Proof, channel *utils.Channel) *ProofStream {
	return &ProofStream{items: proof.Items, channel: channel}
}

// Channel exposes the underlying transcript for squeezing challenges.
func (s *ProofStream) Channel() *utils.Channel {
	return s.channel
}

// Enqueue appends an item and absorbs it if transcript-relevant.
func (s *ProofStream) Enqueue(item ProofItem) {
	s.items = append(s.items, item)
	if item.InTranscript() {
		s.channel.Absorb(item.TranscriptEncoding())
	}
}

// Proof returns the accumulated items as a proof.
func (s *ProofStream) Proof() *Proof {
	return &Proof{Items: s.items}
}

// dequeue pops the next item, enforcing its kind, and absorbs it if
// transcript-relevant.
func (s *ProofStream) dequeue(kind ItemKind) (ProofItem, error) {
	if s.readPos >= len(s.items) {
		return ProofItem{}, fmt.Errorf("%w: proof stream exhausted, want item kind %d", ErrTranscriptDesync, kind)
	}
	item := s.items[s.readPos]
	s.readPos++
	if item.Kind != kind {
		return ProofItem{}, fmt.Errorf("%w: got item kind %d, want %d", ErrTranscriptDesync, item.Kind, kind)
	}
	if item.InTranscript() {
		s.channel.Absorb(item.TranscriptEncoding())
	}
	return item, nil
}

// DequeuePaddedHeightLog2 reads the padded height announcement.
func (s *ProofStream) DequeuePaddedHeightLog2() (int, error) {
	item, err := s.dequeue(ItemPaddedHeightLog2)
	if err != nil {
		return 0, err
	}
	return int(item.Height), nil
}

// DequeueMerkleRoot reads a commitment.
func (s *ProofStream) DequeueMerkleRoot() (core.Digest, error) {
	item, err := s.dequeue(ItemMerkleRoot)
	if err != nil {
		return core.Digest{}, err
	}
	return item.Root, nil
}

// DequeueFieldElements reads an explicit codeword.
func (s *ProofStream) DequeueFieldElements() ([]goldilocks.Element, error) {
	item, err := s.dequeue(ItemFieldElements)
	if err != nil {
		return nil, err
	}
	return item.Elements, nil
}

// DequeueFriRoundOpening reads one FRI query round.
func (s *ProofStream) DequeueFriRoundOpening() (*FriRoundOpening, error) {
	item, err := s.dequeue(ItemFriRoundOpening)
	if err != nil {
		return nil, err
	}
	if item.FriRound == nil {
		return nil, fmt.Errorf("%w: fri round item without payload", ErrTranscriptDesync)
	}
	return item.FriRound, nil
}

// DequeueTraceOpening reads the revealed trace rows.
func (s *ProofStream) DequeueTraceOpening() (*TraceOpening, error) {
	item, err := s.dequeue(ItemTraceOpening)
	if err != nil {
		return nil, err
	}
	if item.Trace == nil {
		return nil, fmt.Errorf("%w: trace item without payload", ErrTranscriptDesync)
	}
	return item.Trace, nil
}
