package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/moviegate/postbot/internal/models"
)

// Document is everything the renderer needs to produce one self-contained
// post: the finalized draft plus the author's settings and channel list.
type Document struct {
	Title          string
	PosterURL      string
	Year           string
	Language       string
	Links          []models.QualityLink
	AdRedirectURL  string
	ClickThreshold int
	Channels       []models.Channel
}

// Renderer produces the interactive post document. The click gate lives
// entirely in the document's own script: one shared counter for all quality
// buttons, the ad redirect below the threshold, the real download link at or
// above it. The server never re-validates the gate.
type Renderer struct {
	tmpl *template.Template
}

func New() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("post").Parse(postTemplate))}
}

// gateConfig is the payload handed to the embedded script.
type gateConfig struct {
	Threshold int      `json:"threshold"`
	AdURL     string   `json:"adUrl"`
	Links     []string `json:"links"`
}

type templateData struct {
	Document
	Gate template.JS
}

func (r *Renderer) Render(doc Document) (string, error) {
	if doc.ClickThreshold < 1 {
		doc.ClickThreshold = 1
	}
	if strings.TrimSpace(doc.AdRedirectURL) == "" {
		doc.AdRedirectURL = "#"
	}

	cfg := gateConfig{
		Threshold: doc.ClickThreshold,
		AdURL:     doc.AdRedirectURL,
		Links:     make([]string, 0, len(doc.Links)),
	}
	for _, link := range doc.Links {
		cfg.Links = append(cfg.Links, link.URL)
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode gate config: %w", err)
	}

	var sb strings.Builder
	data := templateData{Document: doc, Gate: template.JS(payload)}
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render post: %w", err)
	}
	return sb.String(), nil
}

const postTemplate = `<div id="movie-box" style="text-align:center;border:2px solid #eee;padding:20px;border-radius:15px;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;max-width:450px;margin:auto;background:#fff;box-shadow:0 5px 15px rgba(0,0,0,0.1);">
{{if .PosterURL}}    <img src="{{.PosterURL}}" style="width:100%;border-radius:10px;margin-bottom:15px;" />
{{end}}    <h2 style="color:#222;margin:10px 0;">{{.Title}}</h2>
    <p style="color:#555;"><b>Year:</b> {{.Year}} | <b>Language:</b> {{.Language}}</p>

    <div style="margin:20px 0;background:#f9f9f9;padding:15px;border-radius:10px;border:1px dashed #ccc;">
        <p id="counter-text" style="font-weight:bold;color:#d9534f;margin-bottom:10px;">Steps Completed: 0 / {{.ClickThreshold}}</p>
        <div style="width:100%;background:#ddd;height:10px;border-radius:5px;margin-bottom:15px;overflow:hidden;">
            <div id="progress-bar" style="width:0%;background:#d9534f;height:100%;transition:0.3s;"></div>
        </div>
{{range $i, $link := .Links}}        <button class="gate-btn" onclick="gateClick({{$i}})" style="background:#d9534f;color:white;padding:12px 25px;border:none;border-radius:5px;font-weight:bold;font-size:15px;cursor:pointer;width:100%;margin-bottom:8px;">Unlock {{$link.Quality}}</button>
{{end}}    </div>
{{if .Channels}}
    <div style="margin-top:15px;">
{{range .Channels}}        <a href="{{.URL}}" style="background:#333;color:#fff;padding:5px 10px;margin:2px;text-decoration:none;border-radius:3px;font-size:12px;display:inline-block;">{{.Name}}</a>
{{end}}    </div>
{{end}}</div>

<script>
var gate = {{.Gate}};
var clicks = 0;

function gateClick(i) {
    if (clicks < gate.threshold) {
        window.open(gate.adUrl, '_blank');
        clicks++;
        updateGate();
    } else {
        window.location.href = gate.links[i];
    }
}

function updateGate() {
    var percent = (clicks / gate.threshold) * 100;
    document.getElementById('progress-bar').style.width = percent + "%";
    var buttons = document.getElementsByClassName('gate-btn');
    if (clicks >= gate.threshold) {
        document.getElementById('progress-bar').style.background = "#28a745";
        var counter = document.getElementById('counter-text');
        counter.style.color = "#28a745";
        counter.innerText = "Links Unlocked! Click to Download.";
        for (var j = 0; j < buttons.length; j++) {
            buttons[j].style.background = "#28a745";
            buttons[j].innerText = buttons[j].innerText.replace("Unlock", "Download");
        }
    } else {
        document.getElementById('counter-text').innerText = "Steps Completed: " + clicks + " / " + gate.threshold;
    }
}
</script>
`
