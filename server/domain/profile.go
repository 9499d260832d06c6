package domain

import "context"

// Profile は認証済み接続が解決したユーザー情報です。
// 認証そのものは外部コラボレータの責務で、コアは読み取るだけです。
type Profile struct {
	ID                string
	Username          string
	SelectedFighterID string
}

// Mode はマッチメイキングのモードです。
type Mode string

const (
	Mode1v1 Mode = "1v1"
	Mode2v2 Mode = "2v2"
)

// PartySize はモードごとのマッチ成立人数を返します。
func (m Mode) PartySize() int {
	switch m {
	case Mode1v1:
		return 2
	case Mode2v2:
		return 4
	default:
		return 0
	}
}

func (m Mode) IsValid() bool {
	return m.PartySize() > 0
}

// Member はマッチ参加者への送信口です。SessionEndpointが実装します。
type Member interface {
	SessionID() SessionID
	Send(data []byte) error
}

// Gateway はエンドポイントがメッセージを引き渡すアプリケーション境界です。
type Gateway interface {
	// EnqueueMatch はプレイヤーを待機列に追加します。人数が揃えばマッチを開始します。
	EnqueueMatch(ctx context.Context, mode Mode, profile Profile, member Member) error
	// SubmitAction は接続が所属するマッチにアクションを適用します。
	// 所属マッチがない・終了済みなどの場合は黙って無視されます。
	SubmitAction(ctx context.Context, id SessionID, action string)
	// Disconnect は接続を全ての待機列とマッチメンバーシップから取り除きます。
	Disconnect(ctx context.Context, id SessionID)
}
