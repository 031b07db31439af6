package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"fenrir/internal/common"
	fenrirNet "fenrir/internal/net"
)

// reportFixedLen matches Report.Serialize's fixed portion:
// type(1) + side(1) + symbolLen(1) + priceLen(2) + qtyLen(2) + orderIDLen(1)
// + counterpartIDLen(1) + errLen(4) + timestamp(8).
const reportFixedLen = 1 + 1 + 1 + 2 + 2 + 1 + 1 + 4 + 8

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	owner := flag.String("owner", "", "Owner username (compulsory)")

	symbol := flag.String("symbol", "BTC-USD", "Symbol to trade")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'market', 'limit', 'ioc', or 'fok'")
	price := flag.String("price", "", "Limit price (required for limit/ioc/fok)")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")
	logBook := flag.Bool("log", false, "Send a LogBook request instead of placing an order (the server only logs that it was received; no book contents are returned)")

	flag.Parse()

	if *logBook {
		conn, err := net.Dial("tcp", *serverAddr)
		if err != nil {
			log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
		}
		defer conn.Close()
		if err := sendLog(conn); err != nil {
			log.Fatalf("Failed to send log request: %v", err)
		}
		fmt.Println("-> Sent log request")
		return
	}

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	side, ok := parseSide(*sideStr)
	if !ok {
		log.Fatalf("Unknown side: %s", *sideStr)
	}
	orderType, ok := parseOrderType(*typeStr)
	if !ok {
		log.Fatalf("Unknown order type: %s", *typeStr)
	}
	if orderType.RequiresPrice() && *price == "" {
		log.Fatalf("-price is required for order type %s", orderType)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *owner)

	go readReports(conn)

	for _, qty := range strings.Split(*qtyStr, ",") {
		qty = strings.TrimSpace(qty)
		if qty == "" {
			continue
		}
		if err := sendNewOrder(conn, orderType, side, *symbol, *price, qty, *owner); err != nil {
			log.Printf("Failed to place order (qty: %s): %v", qty, err)
			continue
		}
		fmt.Printf("-> Sent %s %s %s %s @ %s\n", strings.ToUpper(*sideStr), orderType, *symbol, qty, *price)
		time.Sleep(5 * time.Millisecond)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func parseSide(s string) (common.Side, bool) {
	switch strings.ToLower(s) {
	case "buy":
		return common.Buy, true
	case "sell":
		return common.Sell, true
	default:
		return 0, false
	}
}

func parseOrderType(s string) (common.OrderType, bool) {
	switch strings.ToLower(s) {
	case "market":
		return common.Market, true
	case "limit":
		return common.Limit, true
	case "ioc":
		return common.IOC, true
	case "fok":
		return common.FOK, true
	default:
		return 0, false
	}
}

// sendNewOrder encodes and writes a NewOrder message per the layout
// documented in internal/net/messages.go's parseNewOrder.
func sendNewOrder(conn net.Conn, orderType common.OrderType, side common.Side, symbol, price, qty, owner string) error {
	if !orderType.RequiresPrice() {
		price = ""
	}

	fixed := fenrirNet.NewOrderFixedHeaderLen - fenrirNet.BaseMessageHeaderLen
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fixed+len(symbol)+len(price)+len(qty)+len(owner))

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(orderType))
	buf[4] = byte(side)
	buf[5] = byte(len(symbol))
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(price)))
	binary.BigEndian.PutUint16(buf[8:10], uint16(len(qty)))
	buf[10] = byte(len(owner))

	off := fenrirNet.BaseMessageHeaderLen + fixed
	off += copy(buf[off:], symbol)
	off += copy(buf[off:], price)
	off += copy(buf[off:], qty)
	copy(buf[off:], owner)

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.LogBook))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	for {
		header := make([]byte, reportFixedLen)
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := fenrirNet.ReportMessageType(header[0])
		side := common.Side(header[1])
		symbolLen := int(header[2])
		priceLen := int(binary.BigEndian.Uint16(header[3:5]))
		qtyLen := int(binary.BigEndian.Uint16(header[5:7]))
		orderIDLen := int(header[7])
		cpIDLen := int(header[8])
		errLen := int(binary.BigEndian.Uint32(header[9:13]))

		tail := make([]byte, symbolLen+priceLen+qtyLen+orderIDLen+cpIDLen+errLen)
		if len(tail) > 0 {
			if _, err := io.ReadFull(conn, tail); err != nil {
				log.Printf("Error reading report body: %v", err)
				return
			}
		}

		off := 0
		symbol := string(tail[off : off+symbolLen])
		off += symbolLen
		price := string(tail[off : off+priceLen])
		off += priceLen
		qty := string(tail[off : off+qtyLen])
		off += qtyLen
		orderID := string(tail[off : off+orderIDLen])
		off += orderIDLen
		counterpartyID := string(tail[off : off+cpIDLen])
		off += cpIDLen
		errStr := string(tail[off : off+errLen])

		if msgType == fenrirNet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
			continue
		}
		fmt.Printf("\n[EXECUTION] %s %s %s @ %s | order=%s vs=%s\n",
			strings.ToUpper(side.String()), symbol, qty, price, orderID, counterpartyID)
	}
}
