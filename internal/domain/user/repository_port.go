// internal/domain/user/repository_port.go
package user

import "strings"

// ========================================
// 入出力（契約のみ）
// ========================================

// UpdateProfileInput is a partial update of the display profile.
// nil の項目は変更しない。
type UpdateProfileInput struct {
	UserName            *string `json:"userName,omitempty"`
	UserImage           *string `json:"userImage,omitempty"`
	UserBackgroundImage *string `json:"userBackgroundImage,omitempty"`
}

// Policy
var (
	MaxUserNameLength = 50
	MaxImageURLLength = 2048
)

// IsEmpty reports whether in changes nothing.
func (in UpdateProfileInput) IsEmpty() bool {
	return in.UserName == nil && in.UserImage == nil && in.UserBackgroundImage == nil
}

// Fields converts in into a merge payload for Users/{uid}.
func (in UpdateProfileInput) Fields() (map[string]any, error) {
	out := map[string]any{}
	if in.UserName != nil {
		v := strings.TrimSpace(*in.UserName)
		if len([]rune(v)) > MaxUserNameLength {
			return nil, ErrInvalidUserName
		}
		out[FieldUserName] = v
	}
	if in.UserImage != nil {
		v := strings.TrimSpace(*in.UserImage)
		if len(v) > MaxImageURLLength {
			return nil, ErrInvalidImageURL
		}
		out[FieldUserImage] = v
	}
	if in.UserBackgroundImage != nil {
		v := strings.TrimSpace(*in.UserBackgroundImage)
		if len(v) > MaxImageURLLength {
			return nil, ErrInvalidImageURL
		}
		out[FieldUserBackgroundImage] = v
	}
	return out, nil
}
