package server

// indexHTML is the single dashboard page. The chart is drawn client-side by
// Plotly from the traces/layout the API returns; any control change re-runs
// the whole pipeline and replaces the rendered output.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Options Open Interest Tracker</title>
<script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script>
<style>
  body { font-family: sans-serif; margin: 1.5rem; background: #f9f9f9; }
  h1 { font-size: 1.3rem; }
  #controls { display: flex; gap: 1.5rem; align-items: flex-end; margin-bottom: 1rem; }
  #controls label { display: block; font-size: 0.8rem; color: #555; }
  #message { color: #b00020; margin: 1rem 0; }
  #spot { color: #1565c0; margin: 0.5rem 0; }
  table { border-collapse: collapse; margin-top: 1rem; }
  th, td { border: 1px solid #ccc; padding: 0.3rem 0.8rem; text-align: right; }
  th { background: #eee; }
  td.pos { color: #1b5e20; }
  td.neg { color: #b71c1c; }
</style>
</head>
<body>
<h1>&#128200; Options Open Interest Tracker</h1>
<div id="controls">
  <div>
    <label for="ticker">Ticker Symbol</label>
    <input id="ticker" type="text" value="{{.DefaultTicker}}">
  </div>
  <div>
    <label for="expiration">Expiration Date</label>
    <select id="expiration"></select>
  </div>
  <div>
    <label for="range">Range Above and Below Spot ($): <span id="rangeval">{{.DefaultRange}}</span></label>
    <input id="range" type="range" min="0" max="200" value="{{.DefaultRange}}">
  </div>
  <button id="fetch">&#128640; Fetch Open Interest Data</button>
</div>
<div id="spot"></div>
<div id="message"></div>
<div id="chart"></div>
<div id="tablewrap"></div>
<script>
const $ = id => document.getElementById(id);

function clearOutput(msg) {
  Plotly.purge('chart');
  $('chart').innerHTML = '';
  $('tablewrap').innerHTML = '';
  $('spot').textContent = '';
  $('message').textContent = msg || '';
}

async function loadExpirations() {
  const ticker = $('ticker').value.trim();
  const resp = await fetch('/api/expirations?ticker=' + encodeURIComponent(ticker));
  const data = await resp.json();
  const sel = $('expiration');
  sel.innerHTML = '';
  if (!resp.ok) {
    clearOutput(data.message);
    return false;
  }
  for (const d of data.expirations) {
    const opt = document.createElement('option');
    opt.value = d;
    opt.textContent = d;
    sel.appendChild(opt);
  }
  return true;
}

async function loadOpenInterest() {
  const ticker = $('ticker').value.trim();
  const params = new URLSearchParams({ticker: ticker, range: $('range').value});
  if ($('expiration').value) params.set('expiration', $('expiration').value);
  const resp = await fetch('/api/openinterest?' + params);
  const data = await resp.json();
  if (!resp.ok) {
    clearOutput(data.message);
    return;
  }
  if (data.no_data) {
    clearOutput('No open interest found for ' + data.ticker + ' at ' + data.expiration + '.');
    return;
  }
  clearOutput();
  if (data.spot !== null) {
    $('spot').textContent = 'Spot Price: $' + data.spot.toFixed(2);
  }
  Plotly.newPlot('chart', data.chart.traces, data.chart.layout, {responsive: true});
  renderTable(data.rows);
}

function renderTable(rows) {
  let html = '<table><tr><th>Strike</th><th>Call OI</th><th>Put OI</th><th>Net Delta</th></tr>';
  for (const r of rows) {
    const cls = r.net_delta >= 0 ? 'pos' : 'neg';
    const sign = r.net_delta > 0 ? '+' : '';
    html += '<tr><td>' + r.strike + '</td><td>' + r.call_oi + '</td><td>' + r.put_oi +
            '</td><td class="' + cls + '">' + sign + r.net_delta + '</td></tr>';
  }
  $('tablewrap').innerHTML = html + '</table>';
}

async function refresh(reloadExpirations) {
  $('message').textContent = 'Fetching...';
  try {
    if (reloadExpirations && !(await loadExpirations())) return;
    await loadOpenInterest();
  } catch (e) {
    clearOutput('Request failed: ' + e);
  }
}

$('fetch').addEventListener('click', () => refresh(true));
$('ticker').addEventListener('change', () => refresh(true));
$('expiration').addEventListener('change', () => refresh(false));
$('range').addEventListener('change', () => {
  $('rangeval').textContent = $('range').value;
  refresh(false);
});
$('range').addEventListener('input', () => { $('rangeval').textContent = $('range').value; });

refresh(true);
</script>
</body>
</html>
`
