package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/turn-indicator/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onoff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Turn Indicator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: #e69500; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Turn Indicator<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Status.Mode}}</td></tr>
<tr><th>Left lamp</th><td id="lamp-left" class="{{if .Status.Lamps.Left}}on{{else}}off{{end}}">{{onoff .Status.Lamps.Left}}</td></tr>
<tr><th>Right lamp</th><td id="lamp-right" class="{{if .Status.Lamps.Right}}on{{else}}off{{end}}">{{onoff .Status.Lamps.Right}}</td></tr>
<tr><th>Left button</th><td id="button-left">{{if .Status.Buttons.Left}}pressed{{else}}released{{end}}</td></tr>
<tr><th>Right button</th><td id="button-right">{{if .Status.Buttons.Right}}pressed{{else}}released{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .Status.MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if .Status.MQTT.Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Status.MQTT.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Left long press</th><td id="count-left">{{.Status.Counts.LeftLongPress}}</td></tr>
<tr><th>Right long press</th><td id="count-right">{{.Status.Counts.RightLongPress}}</td></tr>
<tr><th>Short press</th><td id="count-short">{{.Status.Counts.ShortPress}}</td></tr>
<tr><th>Hazard</th><td id="count-hazard">{{.Status.Counts.Hazard}}</td></tr>
<tr><th>Transitions</th><td id="count-transitions">{{.Status.Counts.Transitions}}</td></tr>
<tr><th>Dropped ticks</th><td>{{.Status.Dropped.Ticks}}</td></tr>
<tr><th>Dropped log lines</th><td>{{.Status.Dropped.LogLines}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Ticks</th><td id="tick">{{.Status.Tick}}</td></tr>
<tr><th>Started</th><td>{{.Status.StartTime}}</td></tr>
<tr><th>Instance</th><td>{{.Status.InstanceID}}</td></tr>
</table>

<h2>Config</h2>
<table>
<tr><th>Tick</th><td>{{.Status.Config.TickMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Status.Config.LongPressMs}}ms</td></tr>
<tr><th>Hazard hold</th><td>{{.Status.Config.HazardHoldMs}}ms</td></tr>
<tr><th>Blink every</th><td>{{.Status.Config.BlinkTicks}} ticks</td></tr>
<tr><th>Status every</th><td>{{.Status.Config.StatusTicks}} ticks</td></tr>
<tr><th>Heartbeat</th><td>{{.Status.Config.HeartbeatMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Status.Config.HTTPPort}}</td></tr>
</table>

<script>
(function() {
  var dot = document.getElementById("live-dot");

  function text(id, v) { document.getElementById(id).textContent = v; }

  function lamp(id, on) {
    var el = document.getElementById(id);
    el.textContent = on ? "ON" : "OFF";
    el.className = on ? "on" : "off";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/ws?interval=300ms");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type !== "state") { return; }
        var s = msg.data;
        text("mode", s.mode);
        lamp("lamp-left", s.lamps.left);
        lamp("lamp-right", s.lamps.right);
        text("button-left", s.buttons.left ? "pressed" : "released");
        text("button-right", s.buttons.right ? "pressed" : "released");
        text("count-left", s.event_counts.left_long_press);
        text("count-right", s.event_counts.right_long_press);
        text("count-short", s.event_counts.short_press);
        text("count-hazard", s.event_counts.hazard);
        text("count-transitions", s.event_counts.transitions);
        text("tick", s.tick);
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		Status status.StatusInner
		Uptime time.Duration
	}{
		Status: status.Build(snap),
		Uptime: snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
