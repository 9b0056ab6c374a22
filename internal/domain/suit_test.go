package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSuit_Index(t *testing.T) {
	for i, s := range Suits {
		if got := s.Index(); got != i {
			t.Errorf("%s.Index() = %d, want %d", s, got, i)
		}
	}
	if Suit("Joker").Valid() {
		t.Error("Joker should not be a valid suit")
	}
}

func TestParseSuit(t *testing.T) {
	tests := []struct {
		in      string
		want    Suit
		wantErr bool
	}{
		{"Spade", Spade, false},
		{"club", Club, false},
		{"DIAMOND", Diamond, false},
		{"heart", Heart, false},
		{"hearts", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSuit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSuit(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSuit(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
	}{
		{"bid", Bid},
		{"Offer", Offer},
		{"ask", Offer},
		{"sell", Offer},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseSide(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Error("ParseSide(hold) should fail")
	}
}

func TestHand_JSON(t *testing.T) {
	var h Hand
	if err := json.Unmarshal([]byte(`{"Spade":3,"Heart":2}`), &h); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if h.Count(Spade) != 3 || h.Count(Heart) != 2 || h.Count(Club) != 0 {
		t.Errorf("unexpected hand %v", h)
	}
	if h.Total() != 5 {
		t.Errorf("Total() = %d, want 5", h.Total())
	}

	if err := json.Unmarshal([]byte(`{"Joker":1}`), &h); err == nil {
		t.Error("unknown suit should be rejected")
	}
	if err := json.Unmarshal([]byte(`{"Club":-1}`), &h); err == nil {
		t.Error("negative count should be rejected")
	}
}

func TestBootstrap_Validate(t *testing.T) {
	roster := []PlayerIdentity{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bo"}}
	tests := []struct {
		name    string
		b       Bootstrap
		wantErr bool
	}{
		{"ok", Bootstrap{RoomID: "r1", Players: roster, SelfID: "a"}, false},
		{"no room", Bootstrap{Players: roster, SelfID: "a"}, true},
		{"empty roster", Bootstrap{RoomID: "r1", SelfID: "a"}, true},
		{"self missing", Bootstrap{RoomID: "r1", Players: roster, SelfID: "z"}, true},
		{"duplicate", Bootstrap{RoomID: "r1", Players: append(roster, PlayerIdentity{ID: "a"}), SelfID: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBootstrap) {
				t.Errorf("error %v does not wrap ErrInvalidBootstrap", err)
			}
		})
	}
}

func TestColorFor_Cycles(t *testing.T) {
	if ColorFor(0) != ColorFor(len(playerPalette)) {
		t.Error("palette should cycle")
	}
	if ColorFor(0) == ColorFor(1) {
		t.Error("adjacent roster positions should get distinct colors")
	}
}
