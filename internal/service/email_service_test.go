package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/logger"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestDisabledEmailServiceSkipsSends(t *testing.T) {
	emails, err := NewEmailService(context.Background(), "eu-west-1", "", "LearnLens", "http://localhost:8080", logger.Nop())
	require.NoError(t, err)
	assert.False(t, emails.IsEnabled())
	assert.NoError(t, emails.SendDigest(context.Background(), "parent@example.com", "Camille", Digest{KidName: "Léa"}))
}

func TestSendDigestRendersBothBodies(t *testing.T) {
	ses := &fakeSES{}
	emails := newEmailService(ses, "noreply@example.com", "LearnLens", "https://learnlens.example", logger.Nop())
	require.True(t, emails.IsEnabled())

	d := Digest{
		KidName:      "Léa",
		Total:        2,
		Scored:       1,
		AverageScore: 80,
		BySubject:    []Count{{Name: "Mathématiques", Count: 1}},
		ByAssistant:  []Count{{Name: "J'Apprends", Count: 2}},
		Lines:        []DigestLine{{Date: "2025-03-20", Title: "Tables <de> 7", Score: "8/10"}},
	}
	require.NoError(t, emails.SendDigest(context.Background(), "parent@example.com", "Camille", d))

	in := ses.input
	require.NotNil(t, in)
	assert.Equal(t, "LearnLens <noreply@example.com>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Léa's learning digest", aws.ToString(in.Content.Simple.Subject.Data))

	html := aws.ToString(in.Content.Simple.Body.Html.Data)
	assert.Contains(t, html, "Hi Camille")
	assert.Contains(t, html, "average of 80%")
	assert.Contains(t, html, "Tables &lt;de&gt; 7")
	assert.Contains(t, html, `href="https://learnlens.example"`)

	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	assert.Contains(t, text, "- Mathématiques: 1")
	assert.Contains(t, text, "- 2025-03-20 Tables <de> 7 (8/10)")
}

func TestSendDigestWrapsClientErrors(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	emails := newEmailService(ses, "noreply@example.com", "", "", logger.Nop())

	err := emails.SendDigest(context.Background(), "parent@example.com", "Camille", Digest{KidName: "Léa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent@example.com")
	assert.Equal(t, "noreply@example.com", aws.ToString(ses.input.FromEmailAddress))
}
