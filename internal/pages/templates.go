package pages

// pageTemplate lays out one lesson with the course navigation, the learner's
// progress and any embedded simulations.
const pageTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>{{.CSS}}</style>
</head>
<body data-page="{{.PageID}}">
  <nav class="sidebar">
    <a class="brand" href="/">Yavin</a>
    <ul>
    {{- range .Nav}}
      <li class="{{if .Active}}active{{end}}{{if .Completed}} done{{end}}"><a href="{{.Href}}">{{.Heading}}</a></li>
    {{- end}}
    </ul>
    <div class="account">
    {{- if .User}}
      <p>Signed in as <strong>{{if .User.Name}}{{.User.Name}}{{else}}{{.User.Email}}{{end}}</strong></p>
      <div class="progress"><div style="width: {{.Completion}}%"></div></div>
      <p>{{.Completion}}% complete · {{.User.TotalXP}} XP · {{.User.StreakDays}} day streak</p>
    {{- else}}
      <p><a href="#" id="login-link">Sign in</a> to track your progress.</p>
    {{- end}}
    </div>
  </nav>
  <main>
    <input type="search" id="lesson-search" placeholder="Search lessons..." autocomplete="off">
    <ul id="search-results"></ul>
    <article>{{.Content}}</article>
    {{- range .Demos}}
    <section class="demo" data-kind="{{.}}">
      <img alt="{{.}} simulation">
      <div class="controls">
        <button data-cmd="start">Start</button>
        <button data-cmd="stop">Stop</button>
        <button data-cmd="step">Step</button>
        <button data-cmd="reset">Reset</button>
      </div>
    </section>
    {{- end}}
    {{- if and .User .Trackable}}
    <button id="mark-complete" data-section="{{.PageID}}">Mark section complete</button>
    {{- end}}
  </main>
  <script>{{.Script}}</script>
</body>
</html>`

const pageCSS = `
:root { --bg: #ffffff; --fg: #1f2937; --muted: #6b7280; --accent: #2563eb; --panel: #f3f4f6; }
[data-theme="dark"] { --bg: #111827; --fg: #e5e7eb; --muted: #9ca3af; --accent: #60a5fa; --panel: #1f2937; }
body { margin: 0; display: flex; font-family: system-ui, sans-serif; background: var(--bg); color: var(--fg); }
.sidebar { width: 240px; min-height: 100vh; padding: 1rem; background: var(--panel); box-sizing: border-box; }
.sidebar ul { list-style: none; padding: 0; }
.sidebar li a { display: block; padding: .3rem 0; color: var(--fg); text-decoration: none; }
.sidebar li.active a { color: var(--accent); font-weight: 600; }
.sidebar li.done a::after { content: " ✓"; color: var(--accent); }
.brand { font-size: 1.4rem; font-weight: 700; color: var(--accent); text-decoration: none; }
.progress { height: 6px; background: var(--bg); border-radius: 3px; }
.progress div { height: 100%; background: var(--accent); border-radius: 3px; }
main { flex: 1; max-width: 860px; padding: 2rem; }
pre { padding: .8rem; overflow-x: auto; background: var(--panel); }
.demo { margin: 1.5rem 0; }
.demo img { width: 100%; max-width: 600px; border: 1px solid var(--panel); }
#search-results { list-style: none; padding: 0; }
`

const pageScript = `
(function () {
  function wsURL(path) {
    return (location.protocol === "https:" ? "wss://" : "ws://") + location.host + path;
  }
  document.querySelectorAll(".demo").forEach(function (el) {
    var img = el.querySelector("img");
    var theme = document.documentElement.dataset.theme;
    fetch("/api/demos/", {method: "POST", headers: {"Content-Type": "application/json"},
      body: JSON.stringify({kind: el.dataset.kind})})
      .then(function (r) { return r.json(); })
      .then(function (demo) {
        var frame = "/api/demos/" + demo.id + "/frame.png?theme=" + theme;
        var n = 0;
        img.src = frame;
        var ws = new WebSocket(wsURL("/ws/demos/" + demo.id));
        ws.onmessage = function () { img.src = frame + "&n=" + (++n); };
        el.querySelectorAll("button").forEach(function (b) {
          b.onclick = function () { ws.send(JSON.stringify({type: b.dataset.cmd})); };
        });
      });
  });
  var search = document.getElementById("lesson-search");
  var results = document.getElementById("search-results");
  search.addEventListener("input", function () {
    if (search.value.trim().length < 2) { results.innerHTML = ""; return; }
    fetch("/api/search?q=" + encodeURIComponent(search.value))
      .then(function (r) { return r.json(); })
      .then(function (hits) {
        results.innerHTML = "";
        (hits || []).forEach(function (h) {
          var li = document.createElement("li");
          var a = document.createElement("a");
          a.href = h.href; a.textContent = h.heading;
          li.appendChild(a); results.appendChild(li);
        });
      });
  });
  var done = document.getElementById("mark-complete");
  if (done) {
    done.onclick = function () {
      fetch("/api/progress", {method: "POST", headers: {"Content-Type": "application/json"},
        body: JSON.stringify({section_id: done.dataset.section, completed: true})})
        .then(function () { location.reload(); });
    };
  }
})();
`
