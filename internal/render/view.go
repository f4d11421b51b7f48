package render

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/paideia-dao/paideia-site/internal/accordion"
	"github.com/paideia-dao/paideia-site/internal/viewmodel"
)

const (
	WhitepaperURL = "https://docs.paideia.im"
	DiscordURL    = "https://discord.gg/J3KDrtCFEn"
	TelegramURL   = "https://t.me/paideiaDAO"
)

type LandingData struct {
	Price string
	Stats []viewmodel.StatView
}

type EducationData struct {
	Articles []viewmodel.ArticleView
	FAQ      []viewmodel.FAQView
	FAQState accordion.State
	PagePath string
}

type sectionLink struct {
	ID   string
	Name string
}

// sectionLinks is the in-page navigation of the education page.
var sectionLinks = []sectionLink{
	{ID: "mission", Name: "Our Mission"},
	{ID: "blockchain", Name: "Blockchain"},
	{ID: "learn", Name: "Learn"},
	{ID: "faq", Name: "FAQ"},
}

var missionParagraphs = []string{
	"Our mission is to give people the power, knowledge, and motivation to change the way they govern and participate in democratic organizations. We will help people experiment with different methods of governance and work together to create a better future, whatever they envision.",
	"Using our tools, individuals who don't have fair access to financial systems may take control and compete in a society that is imbalanced and stacked against them, without needing the approval of the wealthy or elite. Anyone who wants to engage in a democratic organization with a shared financial treasury can do so using Paideia.",
	"The tools we create will allow anyone to initiate and manage a DAO with no prior knowledge or experience, empowering groups of individuals to pool their wealth and put it toward a common aim.",
}

var daoAbilities = []string{
	"Distribute governance tokens",
	"Raise funds",
	"Manage their treasury",
	"Track member reputation",
	"Provide liquidity",
	"Initiate and manage staking contracts",
	"Create proposals on expenditures or governance",
	"Have a forum for stakeholders to discuss all ideas and proposals",
	"Easily deploy their funds to achieve their goals",
	"Experiment with different types of automated algorithmic democratic processes",
}

var blockchainAdvantages = []string{"Simple to use", "Decentralized", "Secure"}

var blockchainIntro = "A DAO should be inexpensive to operate, simple to use, be secure and decentralized. It should be able to resist government intervention and be accessible to anyone in the world, regardless of prohibitive local laws or social status. We believe blockchain is the perfect tool to achieve this due to the immutability of smart contracts, and the global access it provides."

var blockchainParagraphs = []string{
	"We have decided to build the software on Ergo first because it meets those criteria and then some. Paideia will never be designed to be exclusive to Ergo, and will accept many other currencies in the future, however it will be built on Ergo first and always strive to follow the fundamental philosophies therein.",
	"The MVP of Paideia will be launched on Ergo, and we will use that as a jumping point before expanding to other chains. We believe the best candidate for expansion of the platform is Cardano, since it uses a similar eUTXO model to Ergo, but will also consider building the platform on EVM chains.",
}

// imageSrc passes an image reference through templ's URL sanitiser.
func imageSrc(s string) string {
	return string(templ.URL(s))
}

func toggleHref(pagePath string, state accordion.State, id accordion.PanelID) string {
	u := url.URL{Path: pagePath, RawQuery: state.ToggleQuery(id), Fragment: "faq"}
	return u.String()
}

func expandedAttr(state accordion.State, id accordion.PanelID) string {
	if state.IsExpanded(id) {
		return "true"
	}
	return "false"
}

func answerID(id accordion.PanelID) string {
	return string(id) + "-answer"
}
