package viewmodel

type StatView struct {
	Title    string
	Value    string
	SubTitle string
}

// BuildStats is the landing statistics panel. Only the token price is live.
func BuildStats(priceView string) []StatView {
	return []StatView{
		{Title: "DAOs initiated on Paideia", Value: "5", SubTitle: "Organizations"},
		{Title: "Participants in DAOs", Value: "-", SubTitle: "Unique wallets"},
		{Title: "TVL on Paideia", Value: "-", SubTitle: "SigUSD Locked"},
		{Title: "Paideia Token Price", Value: priceView, SubTitle: "SigUSD"},
	}
}
