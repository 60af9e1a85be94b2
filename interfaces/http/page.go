package http

import (
	"html/template"
	"time"

	"vault/domain/model"
	"vault/infrastructure/utils"
	"vault/usecase"
)

const pageTemplateName = "index"

// VideoItem is one rendered list entry.
type VideoItem struct {
	model.Video
	LocalTime string
	Expanded  bool
}

// PageView is what the index template renders.
type PageView struct {
	Items          []VideoItem
	PendingVideoID string
	Phase          string
	Loading        bool
	SubmitLabel    string
	SubmitDisabled bool
	Error          string
}

func NewPageView(s usecase.ViewState, loc *time.Location) PageView {
	items := make([]VideoItem, 0, len(s.Videos))
	for _, v := range s.Videos {
		items = append(items, VideoItem{
			Video:     v,
			LocalTime: utils.LocalizeTimestamp(v.Timestamp, loc),
			Expanded:  s.IsExpanded(v.VideoID),
		})
	}
	return PageView{
		Items:          items,
		PendingVideoID: s.PendingVideoID,
		Phase:          string(s.Phase),
		Loading:        s.Loading(),
		SubmitLabel:    s.SubmitLabel(),
		SubmitDisabled: s.SubmitDisabled(),
		Error:          s.LastError,
	}
}

// PageTemplate parses the single page served at "/".
func PageTemplate() *template.Template {
	return template.Must(template.New(pageTemplateName).Parse(pageTpl))
}

const pageTpl = `<!doctype html>
<html lang="en">
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
{{if .Loading}}<noscript><meta http-equiv="refresh" content="2"></noscript>{{end}}
<title>Vault - YouTube Summary Tracker</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto;max-width:48rem;margin:0 auto;padding:1rem}
form.add{display:flex;gap:.5rem;margin-bottom:1.5rem}
form.add input{flex:1;border:1px solid #ccc;border-radius:4px;padding:.5rem}
form.add button{background:#2563eb;color:#fff;border:0;border-radius:4px;padding:.5rem 1rem}
form.add button[disabled]{opacity:.6}
ul{list-style:none;padding:0;margin:0}
li.video{border:1px solid #ddd;border-radius:6px;padding:1rem;margin-bottom:1rem;box-shadow:0 1px 2px #0001}
.muted{color:#666;font-size:.875rem}
.error{background:#fee2e2;color:#991b1b;border-radius:4px;padding:.5rem;margin-bottom:1rem}
button.link{background:none;border:0;color:#2563eb;text-decoration:underline;padding:0;cursor:pointer;font-size:.875rem}
</style>
<h1>📼 Vault - YouTube Summary Tracker</h1>
{{if .Error}}<div class="error" role="alert">{{.Error}}</div>{{end}}
<form class="add" method="post" action="/videos">
  <input type="text" name="videoId" placeholder="Enter YouTube Video ID" value="{{.PendingVideoID}}" />
  <button type="submit"{{if .SubmitDisabled}} disabled{{end}}>{{.SubmitLabel}}</button>
</form>
<ul id="videos" data-phase="{{.Phase}}" data-count="{{len .Items}}">
{{range .Items}}
  <li class="video" id="video-{{.VideoID}}">
    <h2>{{.Title}}</h2>
    <p class="muted">{{.LocalTime}}</p>
    <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">▶ Watch on YouTube</a>
    <div>
      <p><strong>TL;DR:</strong></p>
      <p>{{.TLDR}}</p>
      <form method="post" action="/videos/{{.VideoID}}/toggle">
        <button class="link" type="submit">{{if .Expanded}}Hide Summary{{else}}Show Full Summary{{end}}</button>
      </form>
      {{if .Expanded}}<p class="summary">{{.Summary}}</p>{{end}}
    </div>
  </li>
{{end}}
</ul>
<script>
(function(){
  if (!window.EventSource) return;
  var list = document.getElementById('videos');
  var phase = list.getAttribute('data-phase');
  var count = list.getAttribute('data-count');
  var es = new EventSource('/events');
  es.addEventListener('state', function(e){
    var d = JSON.parse(e.data);
    if (d.phase !== phase || String(d.video_count) !== count) {
      es.close();
      window.location.reload();
    }
  });
})();
</script>
`
