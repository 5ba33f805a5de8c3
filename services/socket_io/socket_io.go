package socket_io

import (
	"log"
	"time"

	game_constants "Turnato/constants/game"
	"Turnato/middleware"
	"Turnato/services/party"
	"Turnato/services/socket_io/handlers"
	socketio_types "Turnato/services/socket_io/types"

	"github.com/gin-gonic/gin"
	eio_log "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io endpoint on the router. Every connection must carry a guest
// token in its handshake auth payload.
func (sio *MySocketServer) Start(router *gin.Engine, coord *party.Coordinator, secret []byte, debug bool) {
	eio_log.DEBUG = debug
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: generous ping settings so slower networks are not flagged as disconnected
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: the map must exist before the first connection
	if sio.UserConnections == nil {
		sio.UserConnections = make(map[string]map[socket.SocketId]socketio_types.Client)
	}
	server := (*socketio_types.SocketServer)(sio)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		claims, err := middleware.Socketio_JWT_decoder(client.Handshake().Auth, secret)
		if err != nil {
			log.Printf("[CONNECT-ERROR] Socket %s rejected: %v", client.Id(), err)
			client.Emit(game_constants.EventError, gin.H{"error": "Authentication failed: " + err.Error()})
			client.Disconnect(true)
			return
		}
		p := socketio_types.Participant{ID: claims.Subject, Nickname: claims.Nickname}
		server.AddConnection(p.ID, client)
		log.Printf("[CONNECT] Participant %s (%s) connected on socket %s", p.ID, p.Nickname, client.Id())

		client.On(game_constants.EventJoinParty, handlers.HandleJoinParty(coord, client, p))
		client.On(game_constants.EventLeaveParty, handlers.HandleLeaveParty(coord, client, p))
		client.On(game_constants.EventToggleDown, handlers.HandleToggleDown(coord, client, p))
		client.On(game_constants.EventRequestParty, handlers.HandleRequestPartySnapshot(coord, client, p))

		client.On(game_constants.EventJoinMatch, handlers.HandleJoinMatch(coord, client, p))
		client.On(game_constants.EventSquareActivated, handlers.HandleSquareActivated(coord, client, p))
		client.On(game_constants.EventSendMove, handlers.HandleSendMove(coord, client, p))
		client.On(game_constants.EventDismissSharing, handlers.HandleDismissSharing(coord, client, p))
		client.On(game_constants.EventRequestSession, handlers.HandleRequestSessionSnapshot(coord, client, p))

		// NOTE: will remove the socket from the map
		client.On(game_constants.EventDisconnecting, handlers.HandleDisconnecting(coord, client, p, server))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Println("Socket server started")
}

// Close shuts the socket.io server down.
func (sio *MySocketServer) Close() {
	if sio.Sio_server != nil {
		sio.Sio_server.Close(nil)
	}
}
