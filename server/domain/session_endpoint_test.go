package domain_test

import (
	"context"
	"io"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	domain "eclipse/server/domain"
	"eclipse/server/domain/mocks"
)

// 初期化時にリソースが正しくセットアップされることを確認
func TestNewSessionEndpoint_InitializesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, gw, domain.Profile{ID: "u1"}, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if se == nil {
		t.Fatalf("endpoint is nil")
	}
	if se.SessionID() != s.ID() {
		t.Errorf("SessionID = %s, want %s", se.SessionID(), s.ID())
	}
	if se.Profile().ID != "u1" {
		t.Errorf("Profile.ID = %s, want u1", se.Profile().ID)
	}
}

func TestNewSessionEndpoint_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	if _, err := domain.NewSessionEndpoint(nil, c, gw, domain.Profile{}, 0); err != domain.ErrInitializationFailed {
		t.Errorf("nil session: err = %v", err)
	}
	if _, err := domain.NewSessionEndpoint(s, nil, gw, domain.Profile{}, 0); err != domain.ErrInitializationFailed {
		t.Errorf("nil connection: err = %v", err)
	}
	if _, err := domain.NewSessionEndpoint(s, c, nil, domain.Profile{}, 0); err != domain.ErrInitializationFailed {
		t.Errorf("nil gateway: err = %v", err)
	}
}

// writeChが満杯のときSendはデータを破棄してErrBackpressureを返します。
func TestSessionEndpoint_SendBackpressure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, gw, domain.Profile{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// writeLoopを起動しないのでチャネルは溜まる一方
	var sendErr error
	for range 2048 {
		if sendErr = se.Send([]byte("x")); sendErr != nil {
			break
		}
	}
	if sendErr != domain.ErrBackpressure {
		t.Errorf("err = %v, want ErrBackpressure", sendErr)
	}
}

// 待機列エンベロープはGatewayのEnqueueMatchに引き渡されます。
func TestSessionEndpoint_DispatchesQueueMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)
	profile := domain.Profile{ID: "u1", Username: "alice"}

	se, err := domain.NewSessionEndpoint(s, c, gw, profile, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := tr.EXPECT().Read(gomock.Any()).Return([]byte(`{"type":"queue_1v1"}`), nil)
	tr.EXPECT().Read(gomock.Any()).Return(nil, io.EOF).After(first).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().EnqueueMatch(gomock.Any(), domain.Mode1v1, profile, se).Return(nil)
	gw.EXPECT().Disconnect(gomock.Any(), s.ID())

	if err := se.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !s.IsClosed() {
		t.Errorf("session not closed after read error")
	}
}

func TestSessionEndpoint_DispatchesAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, gw, domain.Profile{ID: "u1"}, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := tr.EXPECT().Read(gomock.Any()).Return([]byte(`{"type":"action","action":"HEAVY_ATTACK"}`), nil)
	tr.EXPECT().Read(gomock.Any()).Return(nil, io.EOF).After(first).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().SubmitAction(gomock.Any(), s.ID(), "HEAVY_ATTACK")
	gw.EXPECT().Disconnect(gomock.Any(), s.ID())

	if err := se.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

// EnqueueMatchが拒否された場合、エラーエンベロープをクライアントに返します。
func TestSessionEndpoint_EnqueueRejectionIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, gw, domain.Profile{ID: "u1"}, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	written := make(chan []byte, 1)
	gw.EXPECT().EnqueueMatch(gomock.Any(), domain.Mode2v2, gomock.Any(), se).Return(domain.ErrBackpressure)
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) error {
		written <- data
		return nil
	})
	first := tr.EXPECT().Read(gomock.Any()).Return([]byte(`{"type":"queue_2v2"}`), nil)
	// エラーエンベロープの書き込みを見届けてから切断する
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]byte, error) {
		select {
		case data := <-written:
			written <- data
		case <-ctx.Done():
		}
		return nil, io.EOF
	}).After(first).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().Disconnect(gomock.Any(), s.ID())

	if err := se.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	select {
	case data := <-written:
		msg := string(data)
		if msg == "" {
			t.Errorf("empty error envelope")
		}
	default:
		t.Fatalf("error envelope never written")
	}
}

// 壊れたエンベロープと未知のタイプはGatewayに届かず無視されます。
func TestSessionEndpoint_IgnoresMalformedMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	gw := mocks.NewMockGateway(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, gw, domain.Profile{ID: "u1"}, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := tr.EXPECT().Read(gomock.Any()).Return([]byte(`not json`), nil)
	second := tr.EXPECT().Read(gomock.Any()).Return([]byte(`{"type":"teleport"}`), nil).After(first)
	tr.EXPECT().Read(gomock.Any()).Return(nil, io.EOF).After(second).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil)
	gw.EXPECT().Disconnect(gomock.Any(), s.ID())

	if err := se.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
