package server

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Room Signaling Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log {
            border: 1px solid #ccc;
            height: 320px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
            font-size: 12px;
        }
        input[type="text"] { width: 220px; padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        button:disabled { background-color: #9bb; cursor: default; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .row { margin: 6px 0; }
    </style>
</head>
<body>
    <h1>Room Signaling Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div class="row">
        <input type="text" id="token" placeholder="JWT (optional)">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div class="row">
        <input type="text" id="room" placeholder="Room id" value="lobby">
        <button class="live" onclick="joinRoom()" disabled>Join</button>
        <button class="live" onclick="leaveRoom()" disabled>Leave</button>
        <button class="live" onclick="who()" disabled>Who</button>
    </div>
    <div class="row">
        <input type="text" id="message" placeholder="Chat message...">
        <button class="live" onclick="sendChat()" disabled>Send</button>
    </div>

    <div id="log"></div>

    <script>
        let ws = null;
        let socketId = '';
        const logDiv = document.getElementById('log');
        const statusDiv = document.getElementById('status');
        const connectButton = document.getElementById('connectButton');

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.color = color || 'gray';
            line.textContent = text;
            logDiv.appendChild(line);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected as ' + socketId : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
            document.querySelectorAll('button.live').forEach(b => b.disabled = !connected);
        }

        function send(event, data) {
            if (!ws || ws.readyState !== WebSocket.OPEN) return;
            const frame = JSON.stringify({ event: event, data: data });
            ws.send(frame);
            addLine('> ' + frame, 'blue');
        }

        function roomId() {
            return document.getElementById('room').value.trim();
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const token = document.getElementById('token').value.trim();
            let url = scheme + location.host + '/ws';
            if (token) url += '?token=' + encodeURIComponent(token);
            ws = new WebSocket(url);

            ws.onmessage = function(event) {
                addLine('< ' + event.data, 'green');
                const frame = JSON.parse(event.data);
                if (frame.event === 'connected') {
                    socketId = frame.data.socketId;
                    updateStatus(true);
                }
            };
            ws.onclose = function() {
                addLine('connection closed');
                socketId = '';
                updateStatus(false);
                ws = null;
            };
            ws.onerror = function() {
                addLine('connection error', 'red');
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function joinRoom() { send('join-room', { roomId: roomId() }); }
        function leaveRoom() { send('leave-room', { roomId: roomId() }); }
        function who() { send('who', { roomId: roomId() }); }

        function sendChat() {
            const input = document.getElementById('message');
            const text = input.value.trim();
            if (!text) return;
            send('broadcast', { roomId: roomId(), event: 'chat', payload: { user: socketId.slice(0, 8), text: text } });
            input.value = '';
        }

        document.getElementById('message').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendChat();
        });
    </script>
</body>
</html>`
