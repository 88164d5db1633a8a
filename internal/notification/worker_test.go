package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"panel-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

var testVAPID = &webpush.Options{VAPIDPublicKey: "public", VAPIDPrivateKey: "private"}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(db), testVAPID)

	assert.True(t, wp.Dispatch(Job{UserID: 123, Message: "hello"}))

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job.UserID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, nil, nil)
	for i := 0; i < cap(wp.jobs); i++ {
		require.True(t, wp.Dispatch(Job{UserID: int64(i + 1)}))
	}
	assert.False(t, wp.Dispatch(Job{UserID: 999}))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(gormDB), testVAPID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Equal(t, "Server abcd1234 memory usage is at 97%.", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(101).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", 101, time.Now()))

		wp.Dispatch(Job{UserID: 101, Message: "Server abcd1234 memory usage is at 97%."})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(102).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/expired", "p", "a", 102, time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE user_id = \$1 AND endpoint = \$2`).
			WithArgs(102, "https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(Job{UserID: 102, Message: "gone"})

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}

func TestWorkerPool_SkipsPushWithoutKeys(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(gormDB), nil)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Error("sender must not be called without VAPID keys")
			return nil, nil
		},
	}

	wp.process(context.Background(), Job{UserID: 5, Message: "ignored"})
	assert.NoError(t, mock.ExpectationsWereMet(), "no query should be issued")
}

func TestWorkerPool_Webhook(t *testing.T) {
	received := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wp := NewWorkerPool(1, nil, nil)
	wp.process(context.Background(), Job{Webhook: server.URL, Message: "alice is awaiting approval"})

	select {
	case body := <-received:
		assert.Equal(t, "alice is awaiting approval", body["content"])
	case <-time.After(time.Second):
		t.Fatal("webhook was not called")
	}

	assert.Error(t, wp.sendWebhook(context.Background(), server.URL+"\x7f", "bad url"))
}
