package microblog

// containerResponse is the mobile API wrapper; Ok is 1 on success.
type containerResponse struct {
	Ok   int `json:"ok"`
	Data struct {
		Cards []card `json:"cards"`
	} `json:"data"`
}

type card struct {
	CardType int     `json:"card_type"`
	Mblog    *mblog  `json:"mblog"`
	CardGroup []card `json:"card_group"`
}

type mblog struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	RepostsCount  int64  `json:"reposts_count"`
	CommentsCount int64  `json:"comments_count"`
	AttitudesCount int64 `json:"attitudes_count"`
	User          *struct {
		ID         int64  `json:"id"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	PicURLs []struct {
		ThumbnailPic string `json:"thumbnail_pic"`
	} `json:"pic_urls"`
}
