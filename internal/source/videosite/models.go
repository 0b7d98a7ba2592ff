package videosite

// envelope is the platform's standard API wrapper. Code 0 means success;
// -404 is an unknown account and -412 a throttled client.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type uploadsResponse struct {
	envelope
	Data struct {
		List struct {
			VList []video `json:"vlist"`
		} `json:"list"`
	} `json:"data"`
}

type video struct {
	BVID        string `json:"bvid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Pic         string `json:"pic"`
	Author      string `json:"author"`
	Mid         int64  `json:"mid"`
	Created     int64  `json:"created"`
	Length      string `json:"length"`
	Play        int64  `json:"play"`
	VideoReview int64  `json:"video_review"`
}

type searchResponse struct {
	envelope
	Data struct {
		Result []searchResult `json:"result"`
	} `json:"data"`
}

type searchResult struct {
	BVID        string `json:"bvid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Pic         string `json:"pic"`
	Author      string `json:"author"`
	Mid         int64  `json:"mid"`
	PubDate     int64  `json:"pubdate"`
	Duration    string `json:"duration"`
	Play        int64  `json:"play"`
}
