package reqctx

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRID(t *testing.T) {
	ctx := context.Background()
	if RID(ctx) != "" {
		t.Fatal("empty context should have no rid")
	}
	if got := RID(WithRID(ctx, "abc")); got != "abc" {
		t.Fatalf("rid=%s", got)
	}
}

func TestLogger(t *testing.T) {
	if Logger(context.Background()) != logrus.StandardLogger() {
		t.Fatal("expected standard logger fallback")
	}
	l, hook := test.NewNullLogger()
	entry := l.WithField("request_id", "r1")
	Logger(WithLogger(context.Background(), entry)).Info("hello")
	if hook.LastEntry() == nil || hook.LastEntry().Data["request_id"] != "r1" {
		t.Fatal("expected scoped logger to be used")
	}
}
