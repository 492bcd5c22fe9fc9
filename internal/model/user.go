// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// メールアドレスは全ユーザー間で一意でなければならない。
type User struct {
	ID    int64
	Name  string
	Email string
}

// UserPatch はユーザーの部分更新を表す。
// nilフィールドは変更せず、既存の値を維持する。
type UserPatch struct {
	Name  *string
	Email *string
}

// Apply はパッチを既存ユーザーにフィールド単位でマージした結果を返す。
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u
}
