package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/anatolykoptev/go_notebook/internal/engine"
)

// YouTube Innertube player endpoint: the primary metadata source.

const (
	ytPlayerPath = "/youtubei/v1/player"
	ytWebVersion = "2.20250222.10.00"
)

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	Hl            string `json:"hl,omitempty"`
	Gl            string `json:"gl,omitempty"`
}

type simpleText struct {
	SimpleText string `json:"simpleText"`
}

type innertubePlayerResp struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer struct {
			Title            simpleText `json:"title"`
			Description      simpleText `json:"description"`
			OwnerChannelName string     `json:"ownerChannelName"`
			PublishDate      string     `json:"publishDate"`
			UploadDate       string     `json:"uploadDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

// parsePlayerResponse reads metadata from an Innertube player response.
func parsePlayerResponse(data []byte) (VideoMetadata, error) {
	var resp innertubePlayerResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return VideoMetadata{}, fmt.Errorf("decode player response: %w", err)
	}
	if resp.VideoDetails == nil {
		if ps := resp.PlayabilityStatus; ps != nil && ps.Status != "OK" {
			return VideoMetadata{}, fmt.Errorf("video unavailable: %s %s", ps.Status, ps.Reason)
		}
		return VideoMetadata{}, fmt.Errorf("player response has no videoDetails")
	}
	vd := resp.VideoDetails
	m := VideoMetadata{
		VideoID:     vd.VideoID,
		Title:       vd.Title,
		Channel:     vd.Author,
		Description: vd.ShortDescription,
	}
	date := ""
	if mf := resp.Microformat; mf != nil {
		r := mf.PlayerMicroformatRenderer
		if m.Title == "" {
			m.Title = r.Title.SimpleText
		}
		if m.Channel == "" {
			m.Channel = r.OwnerChannelName
		}
		if m.Description == "" {
			m.Description = r.Description.SimpleText
		}
		date = r.UploadDate
		if date == "" {
			date = r.PublishDate
		}
	}
	m.UploadDate = normalizeDate(date)
	return m, nil
}

func (y *YouTube) fetchInnertube(ctx context.Context, videoID string) (VideoMetadata, error) {
	payload := innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{Client: innertubeClient{
			ClientName:    "WEB",
			ClientVersion: ytWebVersion,
			Hl:            y.hl,
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
	data, err := y.postInnerTube(ctx, ytPlayerPath, payload)
	if err != nil {
		return VideoMetadata{}, err
	}
	return parsePlayerResponse(data)
}

// postInnerTube sends a POST to an Innertube endpoint with WEB client headers.
func (y *YouTube) postInnerTube(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	endpoint := y.baseURL + path + "?prettyPrint=false"

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("X-Youtube-Client-Name", "1")
		req.Header.Set("X-Youtube-Client-Version", ytWebVersion)
		req.Header.Set("Origin", y.baseURL)
		req.Header.Set("Referer", y.baseURL+"/")
		return y.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("innertube [%s]: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("innertube [%s]: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
}
