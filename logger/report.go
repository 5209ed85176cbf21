package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type channelStat struct {
	messages int64
	bytes    int64
}

var (
	errorsShop    int64
	errorsSocial  int64
	warnsShop     int64
	warnsSocial   int64
	shopFetches   int64
	socialPages   int64
	postsSeen     int64
	orderFetches  int64
	archiveWrites int64
	channels      sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	if strings.Contains(component, "shop") || strings.Contains(component, "order") {
		atomic.AddInt64(&warnsShop, 1)
	} else if strings.Contains(component, "social") {
		atomic.AddInt64(&warnsSocial, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "shop") || strings.Contains(component, "order") {
		atomic.AddInt64(&errorsShop, 1)
	} else if strings.Contains(component, "social") {
		atomic.AddInt64(&errorsSocial, 1)
	}
}

func IncrementShopFetch(size int) {
	atomic.AddInt64(&shopFetches, 1)
	recordChannel("shop_search", size)
}

func IncrementSocialPage(posts int) {
	atomic.AddInt64(&socialPages, 1)
	atomic.AddInt64(&postsSeen, int64(posts))
	recordChannel("social_pages", posts)
}

func IncrementOrderFetch(size int) {
	atomic.AddInt64(&orderFetches, 1)
	recordChannel("order_listings", size)
}

func IncrementArchiveWrite(size int64) {
	atomic.AddInt64(&archiveWrites, 1)
	recordChannel("s3_archive", int(size))
}

func RecordChannelMessage(name string, size int) {
	recordChannel(name, size)
}

func recordChannel(name string, size int) {
	v, _ := channels.LoadOrStore(name, &channelStat{})
	cs := v.(*channelStat)
	atomic.AddInt64(&cs.messages, 1)
	atomic.AddInt64(&cs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and channel statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)
	channelData := map[string]map[string]int64{}
	channels.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*channelStat)
		channelData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&cs.messages),
			"bytes":    atomic.LoadInt64(&cs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"errors_shop":    atomic.LoadInt64(&errorsShop),
		"errors_social":  atomic.LoadInt64(&errorsSocial),
		"warns_shop":     atomic.LoadInt64(&warnsShop),
		"warns_social":   atomic.LoadInt64(&warnsSocial),
		"shop_fetches":   atomic.LoadInt64(&shopFetches),
		"social_pages":   atomic.LoadInt64(&socialPages),
		"posts_seen":     atomic.LoadInt64(&postsSeen),
		"order_fetches":  atomic.LoadInt64(&orderFetches),
		"archive_writes": atomic.LoadInt64(&archiveWrites),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuPct,
		"memory_mb":      int64(memStats.Used) / 1024 / 1024,
		"disk_mb":        int64(diskStats.Used) / 1024 / 1024,
		"channels":       channelData,
		"net_bytes_sent": int64(bytesSent),
		"net_bytes_recv": int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-ErrorsShop"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_shop"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-ErrorsSocial"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_social"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-WarnsShop"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_shop"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-WarnsSocial"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_social"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-ShopFetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["shop_fetches"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-SocialPages"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["social_pages"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-PostsSeen"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["posts_seen"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-OrderFetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["order_fetches"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-ArchiveWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["archive_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("TrendFlow-NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range channelData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("TrendFlow-ChannelMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("TrendFlow-ChannelBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
