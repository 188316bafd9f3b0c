package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank. Ten is rendered
// "10" to match the dealing service's wire format.
func (r Rank) String() string {
	switch r {
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		if r >= Two && r <= Nine {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// MarshalJSON encodes the card in the service's wire format ("A♠").
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a card from the service's wire format.
func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	card, err := Parse(s)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// Parse decodes a single card string such as "A♠" or "10♥". ASCII suit
// letters and "T" for ten are accepted as aliases.
func Parse(s string) (Card, error) {
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	suitRune := runes[len(runes)-1]
	rankStr := string(runes[:len(runes)-1])

	var suit Suit
	switch suitRune {
	case '♠', 's', 'S':
		suit = Spades
	case '♥', 'h', 'H':
		suit = Hearts
	case '♦', 'd', 'D':
		suit = Diamonds
	case '♣', 'c', 'C':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}

	var rank Rank
	switch strings.ToUpper(rankStr) {
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = Rank(rankStr[0] - '0')
	case "10", "T":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// Format renders cards as a comma-separated list for display.
func Format(cards []Card) string {
	strs := make([]string, len(cards))
	for i, c := range cards {
		strs[i] = c.String()
	}
	return strings.Join(strs, ", ")
}
