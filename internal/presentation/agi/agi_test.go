package agi

import (
	"strings"
	"testing"

	"github.com/aretw0/ivrflow/internal/compiler"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, b *dsl.Builder, policy domain.DeadBranchPolicy) *domain.Script {
	t.Helper()
	s, err := compiler.Compile(b.MustBuild(), compiler.Options{DeadBranch: policy})
	require.NoError(t, err)
	return s
}

func TestRender_ScenarioA(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Audio("custom/welcome").Go("K1")
	b.Add("K1").Key("1", "Sales", "2", "Bye").On("1", "T1").On("2", "H1")
	b.Add("T1").Transfer("SIP/100")
	b.Add("H1").Hangup()
	s := compile(t, b, domain.DeadBranchReprompt)

	got := Render(s)
	want := `[ivrflow]
exten => s,1,Answer()
 same => n,Goto(ivrflow,L1,1)

; L1 play (prompt-1)
exten => L1,1,Playback(custom/welcome)
 same => n,Goto(ivrflow,L2,1)

; L2 collect (key-2)
exten => L2,1,Read(DIGIT,,1)
 same => n,GotoIf($["${DIGIT}" = "1"]?ivrflow,L3,1)
 same => n,GotoIf($["${DIGIT}" = "2"]?ivrflow,L4,1)
 same => n,Goto(ivrflow,L2,1)

; L3 transfer (transfer-3)
exten => L3,1,Dial(SIP/100)
 same => n,Hangup()

; L4 hangup (hangup-4)
exten => L4,1,Hangup()
`
	assert.True(t, strings.HasSuffix(got, want), got)
	assert.Contains(t, got, "; checksum "+s.Checksum)
	assert.Equal(t, got, Render(s), "rendering is stable")
}

func TestRender_HangupPolicyAndContext(t *testing.T) {
	b := dsl.New()
	b.Add("K1").Key("1", "a").On("1", "H1")
	b.Add("H1").Hangup()
	got := Render(compile(t, b, domain.DeadBranchHangup), WithContext("support"))

	assert.Contains(t, got, "[support]\n")
	assert.Contains(t, got, `GotoIf($["${DIGIT}" = "1"]?support,L2,1)`+"\n same => n,Hangup()")
}

func TestRender_Ops(t *testing.T) {
	b := dsl.New()
	b.Add("L").Language("en", "English").On("en", "A")
	b.Add("A").Endpoint("POST", "https://crm/x?a=1,2").On("200", "M").Go("Q")
	b.Add("M").Menu("main menu").Go("R")
	b.Add("R").Record().Go("V")
	b.Add("V").Voicemail("100@default")
	b.Add("Q").Queue("support")

	got := Render(compile(t, b, domain.DeadBranchReprompt))
	for _, want := range []string{
		"exten => L1,1,Set(LANG=${CHANNEL(language)})",
		`AGI(ivrflow-http,POST,https://crm/x?a=1\,2)`,
		`GotoIf($["${HTTP_STATUS}" = "200"]?ivrflow,L4,1)`,
		" same => n,Goto(ivrflow,L3,1)",
		"Background(main menu)",
		"Record(L5.wav)",
		"VoiceMail(100@default)",
		"Queue(support)",
	} {
		assert.Contains(t, got, want)
	}
}

func TestRender_PromptWithoutSuccessorHangsUp(t *testing.T) {
	b := dsl.New()
	b.Add("P1").Prompt("Goodbye, thanks")
	got := Render(compile(t, b, domain.DeadBranchReprompt))
	assert.Contains(t, got, "exten => L1,1,Playback(Goodbye\\, thanks)\n same => n,Hangup()\n")
}
