package identity

import (
	"testing"

	dom "recipeshare/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProject_NilIsAnonymous(t *testing.T) {
	assert.Nil(t, Project(nil))
}

func TestProject_PartialRecord(t *testing.T) {
	got := Project(&dom.User{ID: 42, Email: strPtr("a@b.com")})
	require.NotNil(t, got)
	assert.Equal(t, UserView{
		ID:           "42",
		Email:        "a@b.com",
		Username:     "",
		Fullname:     "",
		ProfileImage: "",
	}, *got)
}

func TestProject_Fields(t *testing.T) {
	tests := []struct {
		name string
		in   dom.User
		want UserView
	}{
		{
			name: "zero id is still a user",
			in:   dom.User{ID: 0},
			want: UserView{ID: "0"},
		},
		{
			name: "negative id",
			in:   dom.User{ID: -7, Username: strPtr("neg")},
			want: UserView{ID: "-7", Username: "neg"},
		},
		{
			name: "full record",
			in: dom.User{
				ID:           9007199254740993,
				Email:        strPtr("chef@example.com"),
				Username:     strPtr("chef"),
				Fullname:     strPtr("Julia Child"),
				ProfileImage: strPtr("https://img.example.com/chef.png"),
				PasswordHash: "secret",
			},
			want: UserView{
				ID:           "9007199254740993",
				Email:        "chef@example.com",
				Username:     "chef",
				Fullname:     "Julia Child",
				ProfileImage: "https://img.example.com/chef.png",
			},
		},
		{
			name: "empty strings stay empty",
			in:   dom.User{ID: 3, Email: strPtr(""), Fullname: strPtr("")},
			want: UserView{ID: "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(&tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	u := &dom.User{ID: 5, Username: strPtr("five"), ProfileImage: strPtr("p.png")}
	first := Project(u)
	second := Project(u)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, "five", *u.Username, "record must not be touched")
}

func TestUserView_DisplayName(t *testing.T) {
	var anon *UserView
	assert.Equal(t, "", anon.DisplayName())
	assert.Equal(t, "chef", (&UserView{Username: "chef"}).DisplayName())
	assert.Equal(t, "Julia", (&UserView{Username: "chef", Fullname: "Julia"}).DisplayName())
}
