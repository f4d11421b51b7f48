package viewmodel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildStats(t *testing.T) {
	got := BuildStats("$0.0169")
	want := []StatView{
		{Title: "DAOs initiated on Paideia", Value: "5", SubTitle: "Organizations"},
		{Title: "Participants in DAOs", Value: "-", SubTitle: "Unique wallets"},
		{Title: "TVL on Paideia", Value: "-", SubTitle: "SigUSD Locked"},
		{Title: "Paideia Token Price", Value: "$0.0169", SubTitle: "SigUSD"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildStats() mismatch (-want +got):\n%s", diff)
	}
}
