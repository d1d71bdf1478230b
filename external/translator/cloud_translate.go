package translator

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/auth/credentials"
	translate "cloud.google.com/go/translate/apiv3"
	translatepb "cloud.google.com/go/translate/apiv3/translatepb"
	"github.com/foxseedlab/jimakun/internal/translator"
	"google.golang.org/api/option"
)

type CloudTranslateConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
}

type CloudTranslator struct {
	client *translate.TranslationClient
	parent string
}

func NewCloudTranslator(ctx context.Context, cfg CloudTranslateConfig) (translator.Translator, error) {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	client, err := translate.NewTranslationClient(ctx, option.WithAuthCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &CloudTranslator{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s", cfg.ProjectID, location),
	}, nil
}

func (t *CloudTranslator) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	resp, err := t.client.TranslateText(ctx, &translatepb.TranslateTextRequest{
		Parent:             t.parent,
		Contents:           []string{text},
		MimeType:           "text/plain",
		SourceLanguageCode: sourceLanguage,
		TargetLanguageCode: targetLanguage,
	})
	if err != nil {
		return "", err
	}
	if len(resp.GetTranslations()) == 0 {
		return "", fmt.Errorf("translation returned no candidates")
	}
	return resp.GetTranslations()[0].GetTranslatedText(), nil
}

func (t *CloudTranslator) Close() error {
	return t.client.Close()
}
