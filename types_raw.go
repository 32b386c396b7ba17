package tiktok

// Shapes of the rehydration JSON TikTok embeds in a server-rendered profile
// page. Only what the lookup reads is decoded.

type rehydration struct {
	Scope struct {
		Profile profilePayload `json:"webapp.user-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

// profilePayload is the user-detail entry. TikTok answers unknown or banned
// handles with 200 and a non-zero statusCode.
type profilePayload struct {
	StatusCode int         `json:"statusCode"`
	UserInfo   profileInfo `json:"userInfo"`
}

type profileInfo struct {
	User  profileUser  `json:"user"`
	Stats profileStats `json:"stats"`
}

type profileUser struct {
	ID        string `json:"id"`
	Handle    string `json:"uniqueId"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatarLarger"`
	Signature string `json:"signature"`
	Verified  bool   `json:"verified"`
}

type profileStats struct {
	Followers int   `json:"followerCount"`
	Following int   `json:"followingCount"`
	Likes     int64 `json:"heartCount"`
	Videos    int   `json:"videoCount"`
}

func (p profilePayload) author() Author {
	u, s := p.UserInfo.User, p.UserInfo.Stats
	return Author{
		ID:             u.ID,
		Username:       u.Handle,
		Nickname:       u.Nickname,
		FollowerCount:  s.Followers,
		FollowingCount: s.Following,
		LikeCount:      s.Likes,
		VideoCount:     s.Videos,
		Verified:       u.Verified,
		Bio:            u.Signature,
		AvatarURL:      u.Avatar,
	}
}
