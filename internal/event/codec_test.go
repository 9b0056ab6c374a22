package event

import (
	"encoding/json"
	"errors"
	"testing"

	"figgie_go/internal/domain"
)

func TestDecode_Events(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, ev Event)
	}{
		{
			name:  "trade",
			frame: `{"type":"TradeExecuted","payload":{"buyer":"b","seller":"s","suit":"Heart","price":20}}`,
			check: func(t *testing.T, ev Event) {
				tr, ok := ev.(TradeExecuted)
				if !ok {
					t.Fatalf("got %T, want TradeExecuted", ev)
				}
				if tr.Buyer != "b" || tr.Seller != "s" || tr.Suit != domain.Heart || tr.Price != 20 {
					t.Errorf("unexpected trade %+v", tr)
				}
			},
		},
		{
			name:  "quote placed with nested owner",
			frame: `{"type":"QuotePlaced","payload":{"quote":{"player_id":"p1","suit":"Club","side":"Bid","price":7}}}`,
			check: func(t *testing.T, ev Event) {
				qp := ev.(QuotePlaced)
				want := domain.Quote{PlayerID: "p1", Suit: domain.Club, Side: domain.Bid, Price: 7}
				if qp.Quote != want {
					t.Errorf("quote = %+v, want %+v", qp.Quote, want)
				}
			},
		},
		{
			name:  "quote canceled with top-level owner",
			frame: `{"type":"QuoteCanceled","payload":{"player":"p2","quote":{"suit":"Spade","side":"Offer","price":0}}}`,
			check: func(t *testing.T, ev Event) {
				qc := ev.(QuoteCanceled)
				if qc.Quote.PlayerID != "p2" || qc.Quote.Side != domain.Offer || qc.Quote.Price != 0 {
					t.Errorf("unexpected cancel %+v", qc.Quote)
				}
			},
		},
		{
			name:  "round started",
			frame: `{"type":"RoundStarted","payload":{"round_id":3,"server_time":1700000000,"player":{"info":{"id":"me","name":"Me"},"cash":350,"hand":{"Spade":4,"Club":3,"Diamond":2,"Heart":1}}}}`,
			check: func(t *testing.T, ev Event) {
				rs := ev.(RoundStarted)
				if rs.RoundID != 3 || rs.ServerTime != 1700000000 {
					t.Errorf("unexpected round header %+v", rs)
				}
				if rs.Player.Info.ID != "me" || rs.Player.Cash != 350 || rs.Player.Hand.Total() != 10 {
					t.Errorf("unexpected player %+v", rs.Player)
				}
			},
		},
		{
			name:  "round ended",
			frame: `{"type":"RoundEnded","payload":{"round_id":3,"server_time":1700000240,"goal_suit":"Diamond","players":[{"info":{"id":"a","name":"A"},"cash":400,"hand":{"Diamond":5}}]}}`,
			check: func(t *testing.T, ev Event) {
				re := ev.(RoundEnded)
				if re.GoalSuit != domain.Diamond || len(re.Players) != 1 || re.Players[0].Hand.Count(domain.Diamond) != 5 {
					t.Errorf("unexpected round end %+v", re)
				}
			},
		},
		{
			name:  "game ended",
			frame: `{"type":"GameEnded","payload":{"players":[]}}`,
			check: func(t *testing.T, ev Event) {
				if ev.GetType() != EvGameEnded {
					t.Errorf("type = %s", ev.GetType())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tt.check(t, ev)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	frames := []string{
		``,
		`not json`,
		`{"type":"Nope","payload":{}}`,
		`{"type":"TradeExecuted"}`,
		`{"type":"TradeExecuted","payload":{"buyer":"b","suit":"Heart","price":1}}`,
		`{"type":"TradeExecuted","payload":{"buyer":"b","seller":"s","suit":"Joker","price":1}}`,
		`{"type":"QuotePlaced","payload":{"quote":{"suit":"Club","side":"Bid","price":1}}}`,
		`{"type":"QuotePlaced","payload":{"quote":{"player_id":"p","suit":"Club","side":"Hold","price":1}}}`,
		`{"type":"QuotePlaced","payload":{"quote":{"player_id":"p","suit":"Club","side":"Bid"}}}`,
		`{"type":"QuotePlaced","payload":{"player":"p"}}`,
		`{"type":"RoundStarted","payload":{"round_id":1,"player":{"info":{"name":"x"}}}}`,
		`{"type":"RoundStarted","payload":{"round_id":1,"player":{"info":{"id":"x"},"hand":{"Joker":1}}}}`,
		`{"type":"RoundEnded","payload":{"round_id":1,"goal_suit":"","players":[]}}`,
	}
	for _, f := range frames {
		ev, err := Decode([]byte(f))
		if err == nil {
			t.Errorf("Decode(%q) = %+v, want error", f, ev)
			continue
		}
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) error %v does not wrap ErrMalformed", f, err)
		}
	}
}

func TestEncode_Actions(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{
			"place",
			PlaceQuote{PlayerID: "p", Suit: domain.Heart, Side: domain.Bid, Price: 12},
			`{"type":"PlaceQuote","payload":{"player_id":"p","suit":"Heart","side":"Bid","price":12}}`,
		},
		{
			"cancel",
			CancelQuote{PlayerID: "p", Suit: domain.Club, Side: domain.Offer, Price: 3},
			`{"type":"CancelQuote","payload":{"player_id":"p","suit":"Club","side":"Offer","price":3}}`,
		},
		{
			"start",
			StartRound{RoundID: 2, RoomID: "r"},
			`{"type":"StartRound","payload":{"round_id":2,"room_id":"r"}}`,
		},
		{
			"end round",
			EndRound{RoundID: 2, RoomID: "r"},
			`{"type":"EndRound","payload":{"round_id":2,"room_id":"r"}}`,
		},
		{
			"end game",
			EndGame{RoomID: "r", RoundID: 2, PlayerID: "p"},
			`{"type":"EndGame","payload":{"room_id":"r","round_id":2,"player_id":"p"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.action)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !jsonEqual(t, got, []byte(tt.want)) {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("unmarshal %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	ja, _ := json.Marshal(va)
	jb, _ := json.Marshal(vb)
	return string(ja) == string(jb)
}
