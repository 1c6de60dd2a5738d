package user

import (
	"testing"

	"github.com/trezcool/tamasha/core"
)

func TestUser_CanManageChapter(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		ch   core.Chapter
		want bool
	}{
		{name: "elite master manages any chapter", usr: User{Role: RoleEliteMaster}, ch: core.ChapterCS, want: true},
		{name: "super admin manages any chapter", usr: User{Role: RoleSuperAdmin}, ch: core.ChapterWIE, want: true},
		{name: "chapter admin manages own chapter", usr: User{Role: RoleChapterAdmin, Chapter: core.ChapterCS}, ch: core.ChapterCS, want: true},
		{name: "chapter admin denied elsewhere", usr: User{Role: RoleChapterAdmin, Chapter: core.ChapterCS}, ch: core.ChapterPES, want: false},
		{name: "no role manages nothing", usr: User{}, ch: core.ChapterCS, want: false},
		{name: "unknown role manages nothing", usr: User{Role: Role("participant")}, ch: core.ChapterCS, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usr.CanManageChapter(tt.ch); got != tt.want {
				t.Errorf("CanManageChapter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range AllRoles {
		if !r.IsValid() {
			t.Errorf("Role(%s).IsValid() = false, want true", r)
		}
	}
	if Role("participant").IsValid() {
		t.Error(`Role("participant").IsValid() = true, want false`)
	}
}

func TestUser_passwords(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
	if err := usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
