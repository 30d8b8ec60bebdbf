package agent_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolioagent/portfolioagent/internal/agent"
	"github.com/portfolioagent/portfolioagent/internal/gateway"
	"github.com/portfolioagent/portfolioagent/internal/intent"
	"github.com/portfolioagent/portfolioagent/internal/retrieval"
	"github.com/portfolioagent/portfolioagent/internal/tools"
)

// fakeModel answers classification prompts with classify and everything
// else with reply.
type fakeModel struct {
	mu       sync.Mutex
	classify string
	reply    string
	prompts  []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) gateway.Reply {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if strings.HasPrefix(prompt, "You are an intent classification assistant.") {
		return gateway.NewTextReply(f.classify)
	}
	return gateway.NewTextReply(f.reply)
}

func (f *fakeModel) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type fakeToolService struct {
	calls  int
	result any
}

func (f *fakeToolService) Initialize(ctx context.Context) error { return nil }

func (f *fakeToolService) CallTool(ctx context.Context, name string, args map[string]string) any {
	f.calls++
	return f.result
}

type fixedEmbedder struct{ calls atomic.Int32 }

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return []float32{1, 0}, nil
}

func projectIndex(n int) *retrieval.MemoryIndex {
	docs := make([]retrieval.Document, n)
	for i := range docs {
		docs[i] = retrieval.Document{
			Text:      fmt.Sprintf("Project %d", i+1),
			Source:    "text_data.json",
			Embedding: []float32{1, float32(i) / 10},
		}
	}
	return retrieval.NewMemoryIndex(docs)
}

type pipeline struct {
	model *fakeModel
	svc   *fakeToolService
	emb   *fixedEmbedder
	agent *agent.Agent
}

func newPipeline(classify, reply string) *pipeline {
	p := &pipeline{
		model: &fakeModel{classify: classify, reply: reply},
		svc:   &fakeToolService{result: []any{map[string]any{"title": "Pay rent"}}},
		emb:   &fixedEmbedder{},
	}
	catalog := tools.DefaultCatalog()
	p.agent = agent.New(
		p.model,
		intent.NewClassifier(p.model, catalog),
		retrieval.NewPath(p.emb, projectIndex(7), retrieval.DefaultTopK),
		tools.NewDispatcher(catalog, p.svc),
	)
	return p
}

func TestGreeting(t *testing.T) {
	p := newPipeline("no json here", "Hello there, welcome to my portfolio!")

	turn := p.agent.Run(context.Background(), "hi")

	assert.Equal(t, intent.Greeting(), turn.Intent)
	assert.Equal(t, agent.GreetingPrompt("hi"), turn.Prompt)
	assert.Equal(t, "Hello there, welcome to my portfolio!", turn.Reply)
	assert.NotEmpty(t, turn.Reply)
}

func TestRetrievalListsTopFiveMatches(t *testing.T) {
	p := newPipeline(`{"flow":"RAG Vector DB","tool":"","parameters":{}}`, "I have built several Go services and agents.")

	turn := p.agent.Run(context.Background(), "what projects have you built?")

	assert.Equal(t, intent.FlowRetrieval, turn.Intent.Flow)
	assert.Equal(t, int32(1), p.emb.calls.Load())
	for i := 1; i <= 5; i++ {
		assert.Contains(t, turn.Prompt, fmt.Sprintf("%d. Project %d\n", i, i))
	}
	assert.NotContains(t, turn.Prompt, "6. ")
	assert.Equal(t, turn.Prompt, p.model.last())
}

func TestToolMissingParametersSkipsService(t *testing.T) {
	p := newPipeline(`{"flow":"MCP DB Toolbox","tool":"create-task","parameters":{"title":"x"}}`, "Please tell me the due date for the task.")

	turn := p.agent.Run(context.Background(), "create a task called x")

	assert.Equal(t, tools.MsgMissingParams, turn.Prompt)
	assert.Zero(t, p.svc.calls)
	assert.Equal(t, tools.MsgMissingParams, p.model.last())
}

func TestToolUnknownSkipsService(t *testing.T) {
	p := newPipeline(`{"flow":"MCP DB Toolbox","tool":"drop-database","parameters":{}}`, "Sorry, that is not something I can do.")

	turn := p.agent.Run(context.Background(), "drop the database")

	assert.Equal(t, tools.MsgUnknownTool, turn.Prompt)
	assert.Zero(t, p.svc.calls)
}

func TestToolCallResultReachesPrompt(t *testing.T) {
	p := newPipeline(`{"flow":"MCP DB Toolbox","tool":"get-tasks-due-today","parameters":{}}`, "You need to pay rent today.")

	turn := p.agent.Run(context.Background(), "what is due today?")

	assert.Equal(t, 1, p.svc.calls)
	assert.Contains(t, turn.Prompt, "here are tasks due today:\n- Pay rent")
	assert.Equal(t, "You need to pay rent today.", turn.Reply)
}

func TestShortReplyIsAnnotated(t *testing.T) {
	p := newPipeline("", "Hi!")

	got := p.agent.Handle(context.Background(), "hey")

	assert.Equal(t, agent.ShortReplyNotice+"Hi!", got)
}

func TestLocalFailureWithoutRemoteStillAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "connection reset", http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := gateway.New(gateway.NewOllama(srv.URL, "mistral:latest", time.Second), nil)
	require.True(t, gw.Generate(context.Background(), "anything").Empty())

	catalog := tools.DefaultCatalog()
	a := agent.New(
		gw,
		intent.NewClassifier(gw, catalog),
		retrieval.NewPath(&fixedEmbedder{}, projectIndex(1), 5),
		tools.NewDispatcher(catalog, &fakeToolService{}),
	)

	got := a.Handle(context.Background(), "hello")
	assert.Equal(t, agent.ShortReplyNotice, got)
}

func TestCheckReply(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", agent.ShortReplyNotice},
		{"   ", agent.ShortReplyNotice + "   "},
		{"Hello", agent.ShortReplyNotice + "Hello"},
		{"Hello  there", agent.ShortReplyNotice + "Hello  there"},
		{"Hello there friend", "Hello there friend"},
		{"line one\nline two\nthree", "line one\nline two\nthree"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, agent.CheckReply(tt.in), "in=%q", tt.in)
	}
}

func TestSelectDefaultsToGreeting(t *testing.T) {
	p := newPipeline("", "")
	got := p.agent.Select(context.Background(), "yo", intent.Intent{Flow: "something else"})
	assert.Equal(t, agent.GreetingPrompt("yo"), got)
}

func TestConcurrentHandle(t *testing.T) {
	p := newPipeline(`{"flow":"RAG Vector DB","tool":"","parameters":{}}`, "Here are my projects for you.")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Here are my projects for you.", p.agent.Handle(context.Background(), "projects?"))
		}()
	}
	wg.Wait()
}
