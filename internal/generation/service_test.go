package generation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/config"
	eventmocks "github.com/povarna/generative-ai-agents/blog-agent/internal/events/mocks"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
	llmmocks "github.com/povarna/generative-ai-agents/blog-agent/internal/llm/mocks"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store/file"
	storemocks "github.com/povarna/generative-ai-agents/blog-agent/internal/store/mocks"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newFileStore(t *testing.T) *file.Store {
	t.Helper()
	s, err := file.New(filepath.Join(t.TempDir(), "data.json"), newTestLogger())
	if err != nil {
		t.Fatalf("file.New failed: %v", err)
	}
	return s
}

func newTestService(t *testing.T, client llm.LLMClient, st store.Store, opts Options) *Service {
	t.Helper()
	svc, err := NewService(client, st, nil, config.DefaultPromptConfig(), opts, newTestLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func listRecords(t *testing.T, st store.Store) []models.GenerationRecord {
	t.Helper()
	records, err := store.Collect(st.ListAll(context.Background()))
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	return records
}

func TestGenerate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			if !strings.Contains(req.Prompt, "Write about cats") {
				t.Errorf("Expected rendered prompt to contain the topic, got %q", req.Prompt)
			}
			if req.MaxTokens != 4096 {
				t.Errorf("Expected max tokens 4096, got %d", req.MaxTokens)
			}
			if _, ok := ctx.Deadline(); !ok {
				t.Error("Expected upstream call to carry a deadline")
			}
			return &llm.LLMResponse{Content: "Cats are great.", Model: "stub"}, nil
		})

	svc := newTestService(t, client, st, Options{})

	record, err := svc.Generate(context.Background(), "Write about cats")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if record.Prompt != "Write about cats" {
		t.Errorf("Expected prompt 'Write about cats', got %q", record.Prompt)
	}
	if record.Content != "Cats are great." {
		t.Errorf("Expected content 'Cats are great.', got %q", record.Content)
	}
	if record.ID == "" {
		t.Error("Expected non-empty id")
	}
	if record.CreatedAt.IsZero() || record.CreatedAt.Location() != time.UTC {
		t.Errorf("Expected UTC createdAt, got %v", record.CreatedAt)
	}

	records := listRecords(t, st)
	if len(records) != 1 {
		t.Fatalf("Expected 1 stored record, got %d", len(records))
	}
	if records[0].ID != record.ID || records[0].Content != "Cats are great." {
		t.Errorf("Stored record mismatch: %+v", records[0])
	}
}

func TestGenerate_PromptStoredVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "ok"}, nil)

	svc := newTestService(t, client, st, Options{})

	prompt := "  Ünïcode <b>topic</b> & friends  "
	record, err := svc.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if record.Prompt != prompt {
		t.Errorf("Expected prompt %q, got %q", prompt, record.Prompt)
	}
	if got := listRecords(t, st)[0].Prompt; got != prompt {
		t.Errorf("Stored prompt %q, want %q", got, prompt)
	}
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr error
	}{
		{"empty", "", ErrEmptyPrompt},
		{"whitespace", "   \t\n ", ErrEmptyPrompt},
		{"too long", strings.Repeat("a", 11), ErrPromptTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// No upstream call and no store mutation expected.
			client := llmmocks.NewMockLLMClient(ctrl)
			st := storemocks.NewMockStore(ctrl)

			svc := newTestService(t, client, st, Options{MaxPromptLength: 10})

			_, err := svc.Generate(context.Background(), tt.prompt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestGenerate_MaxLengthCountsRunes(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	client.EXPECT().InvokeModel(gomock.Any(), gomock.Any()).Return(&llm.LLMResponse{Content: "ok"}, nil)

	svc := newTestService(t, client, newFileStore(t), Options{MaxPromptLength: 5})

	if _, err := svc.Generate(context.Background(), "ééééé"); err != nil {
		t.Errorf("Expected 5-rune prompt to be accepted, got %v", err)
	}
}

func TestGenerate_UpstreamTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Times(1).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	svc := newTestService(t, client, st, Options{Timeout: 20 * time.Millisecond})

	_, err := svc.Generate(context.Background(), "Write about cats")
	ue, ok := llm.AsUpstreamError(err)
	if !ok {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if !ue.Timeout || ue.Kind != llm.KindUnavailable {
		t.Errorf("Expected unavailable timeout, got kind=%s timeout=%v", ue.Kind, ue.Timeout)
	}

	if records := listRecords(t, st); len(records) != 0 {
		t.Errorf("Expected store unchanged, got %d records", len(records))
	}
}

func TestGenerate_UpstreamRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Times(1).
		Return(nil, llm.NewUpstreamError("stub", 401, errors.New("invalid api key")))

	svc := newTestService(t, client, st, Options{})

	_, err := svc.Generate(context.Background(), "Write about cats")
	ue, ok := llm.AsUpstreamError(err)
	if !ok {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if ue.Kind != llm.KindRejected {
		t.Errorf("Expected rejected, got %s", ue.Kind)
	}
	if records := listRecords(t, st); len(records) != 0 {
		t.Errorf("Expected store unchanged, got %d records", len(records))
	}
}

func TestGenerate_UnclassifiedErrorIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	svc := newTestService(t, client, newFileStore(t), Options{})

	_, err := svc.Generate(context.Background(), "Write about cats")
	ue, ok := llm.AsUpstreamError(err)
	if !ok {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if ue.Kind != llm.KindUnavailable {
		t.Errorf("Expected unavailable, got %s", ue.Kind)
	}
}

func TestGenerate_EmptyContentRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "  "}, nil)

	svc := newTestService(t, client, st, Options{})

	_, err := svc.Generate(context.Background(), "Write about cats")
	ue, ok := llm.AsUpstreamError(err)
	if !ok || ue.Kind != llm.KindRejected {
		t.Fatalf("Expected rejected UpstreamError, got %v", err)
	}
	if records := listRecords(t, st); len(records) != 0 {
		t.Errorf("Expected store unchanged, got %d records", len(records))
	}
}

func TestGenerate_StorageFailureReturnsRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := storemocks.NewMockStore(ctrl)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "Cats are great."}, nil)
	st.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	svc := newTestService(t, client, st, Options{})

	record, err := svc.Generate(context.Background(), "Write about cats")
	se, ok := AsStorageError(err)
	if !ok {
		t.Fatalf("Expected StorageError, got %v", err)
	}
	if se.Record.Content != "Cats are great." || se.Record.ID == "" {
		t.Errorf("Expected generated record in error, got %+v", se.Record)
	}
	if record.ID != se.Record.ID {
		t.Errorf("Expected returned record to match error record")
	}
}

func TestGenerate_PublishFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	publisher := eventmocks.NewMockPublisher(ctrl)
	st := newFileStore(t)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "Cats are great."}, nil)
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	svc, err := NewService(client, st, publisher, config.DefaultPromptConfig(), Options{}, newTestLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if _, err := svc.Generate(context.Background(), "Write about cats"); err != nil {
		t.Fatalf("Expected publish failure to be ignored, got %v", err)
	}
	if records := listRecords(t, st); len(records) != 1 {
		t.Errorf("Expected 1 stored record, got %d", len(records))
	}
}

func TestGenerate_PersistsAfterCallerCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)
	st := newFileStore(t)

	ctx, cancel := context.WithCancel(context.Background())

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, llm.LLMRequest) (*llm.LLMResponse, error) {
			cancel()
			return &llm.LLMResponse{Content: "late"}, nil
		})

	svc := newTestService(t, client, st, Options{})

	if _, err := svc.Generate(ctx, "Write about cats"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if records := listRecords(t, st); len(records) != 1 {
		t.Errorf("Expected 1 stored record, got %d", len(records))
	}
}

func TestNewService_InvalidTemplate(t *testing.T) {
	cfg := config.DefaultPromptConfig()
	cfg.Generation.Template = "{{.Topic"

	if _, err := NewService(nil, nil, nil, cfg, Options{}, newTestLogger()); err == nil {
		t.Error("Expected error for invalid template")
	}
}

func TestGenerate_ZeroTemperaturePassedThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := llmmocks.NewMockLLMClient(ctrl)

	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			if req.Temperature != 0 {
				t.Errorf("Expected temperature 0, got %f", req.Temperature)
			}
			return &llm.LLMResponse{Content: "Cats are great.", Model: "stub"}, nil
		})

	promptCfg := config.DefaultPromptConfig()
	zero := 0.0
	promptCfg.Generation.Model.Temperature = &zero

	svc, err := NewService(client, newFileStore(t), nil, promptCfg, Options{}, newTestLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if _, err := svc.Generate(context.Background(), "Write about cats"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}
