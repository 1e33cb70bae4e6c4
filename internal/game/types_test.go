package game

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBetRequest_JSON(t *testing.T) {
	raw := `{"game_type":"limbo","stake":"12.50","params":{"target":2.5},"client_seed":"lucky"}`

	var req BetRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Failed to unmarshal BetRequest: %v", err)
	}

	if req.GameType != GameTypeLimbo {
		t.Errorf("GameType = %v, want limbo", req.GameType)
	}
	if !req.Stake.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Stake = %v, want 12.5", req.Stake)
	}
	if req.Params.Target != 2.5 {
		t.Errorf("Target = %v, want 2.5", req.Params.Target)
	}
	if req.ClientSeed == nil || *req.ClientSeed != "lucky" {
		t.Errorf("ClientSeed = %v, want lucky", req.ClientSeed)
	}
}

func TestBetRequest_JSONWithoutClientSeed(t *testing.T) {
	var req BetRequest
	if err := json.Unmarshal([]byte(`{"game_type":"dice","stake":1,"params":{"face":3}}`), &req); err != nil {
		t.Fatalf("Failed to unmarshal BetRequest: %v", err)
	}
	if req.ClientSeed != nil {
		t.Errorf("ClientSeed = %q, want nil", *req.ClientSeed)
	}
}

func TestOutcome_Net(t *testing.T) {
	stake := decimal.NewFromInt(10)

	win := newOutcome(GameTypeCoinFlip, true, decimal.NewFromInt(2), stake, Detail{})
	if !win.Net(stake).Equal(decimal.NewFromInt(10)) {
		t.Errorf("win Net() = %s, want 10", win.Net(stake))
	}

	loss := newOutcome(GameTypeCoinFlip, false, decimal.Zero, stake, Detail{})
	if !loss.Net(stake).Equal(decimal.NewFromInt(-10)) {
		t.Errorf("loss Net() = %s, want -10", loss.Net(stake))
	}

	draw := newOutcome(GameTypeRPS, false, decimal.NewFromInt(1), stake, Detail{Draw: true})
	if !draw.Net(stake).IsZero() {
		t.Errorf("draw Net() = %s, want 0", draw.Net(stake))
	}
}

func TestOutcome_Equal(t *testing.T) {
	base := Outcome{
		GameType:   GameTypeSnakes,
		Won:        true,
		Multiplier: decimal.RequireFromString("1.50"),
		Payout:     decimal.RequireFromString("15"),
		Detail:     Detail{Path: []int{0, 2, 5}, Traps: []int{7, 13, 19}, Position: 5, Status: "CASHED_OUT"},
	}

	t.Run("decimals compare by value", func(t *testing.T) {
		other := base
		other.Multiplier = decimal.RequireFromString("1.5")
		if !base.Equal(other) {
			t.Error("1.50 and 1.5 should be equal")
		}
	})

	t.Run("survives a JSON round trip", func(t *testing.T) {
		data, err := json.Marshal(base)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded Outcome
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !base.Equal(decoded) {
			t.Errorf("decoded outcome differs: %+v", decoded)
		}
	})

	mutations := map[string]func(o *Outcome){
		"won":        func(o *Outcome) { o.Won = false },
		"multiplier": func(o *Outcome) { o.Multiplier = decimal.NewFromInt(2) },
		"payout":     func(o *Outcome) { o.Payout = decimal.NewFromInt(16) },
		"path":       func(o *Outcome) { o.Detail.Path = []int{0, 2, 4} },
		"traps":      func(o *Outcome) { o.Detail.Traps = []int{7, 13} },
		"status":     func(o *Outcome) { o.Detail.Status = "BUSTED" },
	}
	for name, mutate := range mutations {
		t.Run("detects changed "+name, func(t *testing.T) {
			other := base
			other.Detail.Path = append([]int(nil), base.Detail.Path...)
			other.Detail.Traps = append([]int(nil), base.Detail.Traps...)
			mutate(&other)
			if base.Equal(other) {
				t.Errorf("changed %s should not be equal", name)
			}
		})
	}
}

func TestThrow_Relations(t *testing.T) {
	for _, th := range []Throw{ThrowRock, ThrowPaper, ThrowScissors} {
		if th.Beats() == th || th.BeatenBy() == th {
			t.Errorf("%s should not beat or lose to itself", th)
		}
		if th.Beats().BeatenBy() != th {
			t.Errorf("%s.Beats().BeatenBy() = %s", th, th.Beats().BeatenBy())
		}
	}
	if ThrowRock.Beats() != ThrowScissors {
		t.Errorf("rock beats %s, want scissors", ThrowRock.Beats())
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideHeads.Opposite() != SideTails || SideTails.Opposite() != SideHeads {
		t.Error("Opposite() should swap heads and tails")
	}
}
