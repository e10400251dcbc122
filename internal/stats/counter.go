package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"waste-recycling-tracker/internal/domain"
)

// 每个作用域（global / family:<name>）四个 hash
const (
	typeCount   = "type_count"
	typeQty     = "type_qty"
	statusCount = "status_count"
	statusQty   = "status_qty"

	// WATCH 冲突时的重试次数
	maxTxRetries = 8
)

// Counter 增量维护的统计；数据库仍是唯一可信来源，漂移用 Rebuild 修复。
// 数量以十进制字符串存放，读改写在 WATCH/MULTI 里完成，和全量扫描的 decimal 求和逐位一致
type Counter struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewCounter(rdb redis.UniversalClient, prefix string) *Counter {
	return &Counter{rdb: rdb, prefix: prefix}
}

func (c *Counter) globalScope() string { return c.prefix + ":global" }

func (c *Counter) familyScope(familyName string) string { return c.prefix + ":family:" + familyName }

func (c *Counter) familiesKey() string { return c.prefix + ":families" }

// slot 一个计数字段及其数量字段；qtyKey 为空表示只计数（families）
type slot struct{ countKey, qtyKey, name string }

type delta struct {
	n   int64
	qty decimal.Decimal
}

type deltas map[slot]delta

func (d deltas) add(s slot, n int64, q decimal.Decimal) {
	cur := d[s]
	d[s] = delta{n: cur.n + n, qty: cur.qty.Add(q)}
}

// collect 把一条记录按 sign(+1/-1) 计入所有作用域
func (c *Counter) collect(d deltas, e *domain.WasteEntry, sign int64) {
	q := decimal.NewFromFloat(e.Quantity).Mul(decimal.NewFromInt(sign))
	status := e.Status.String()
	for _, sc := range []string{c.globalScope(), c.familyScope(e.FamilyName)} {
		d.add(slot{sc + ":" + typeCount, sc + ":" + typeQty, e.WasteType}, sign, q)
		d.add(slot{sc + ":" + statusCount, sc + ":" + statusQty, status}, sign, q)
	}
	d.add(slot{c.familiesKey(), "", e.FamilyName}, sign, decimal.Zero)
}

func (c *Counter) Record(ctx context.Context, before, after *domain.WasteEntry) error {
	d := deltas{}
	if before != nil {
		c.collect(d, before, -1)
	}
	if after != nil {
		c.collect(d, after, 1)
	}
	if len(d) == 0 {
		return nil
	}

	slots := make([]slot, 0, len(d))
	keySet := map[string]struct{}{}
	for s := range d {
		slots = append(slots, s)
		keySet[s.countKey] = struct{}{}
		if s.qtyKey != "" {
			keySet[s.qtyKey] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}

	txf := func(tx *redis.Tx) error {
		counts := make([]*redis.SliceCmd, len(slots))
		qtys := make([]*redis.SliceCmd, len(slots))
		_, err := tx.Pipelined(ctx, func(p redis.Pipeliner) error {
			for i, s := range slots {
				counts[i] = p.HMGet(ctx, s.countKey, s.name)
				if s.qtyKey != "" {
					qtys[i] = p.HMGet(ctx, s.qtyKey, s.name)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for i, s := range slots {
				dl := d[s]
				n := cast.ToInt64(first(counts[i])) + dl.n
				// 计数降到 0 的字段连同数量字段一起删掉
				if n <= 0 {
					p.HDel(ctx, s.countKey, s.name)
					if s.qtyKey != "" {
						p.HDel(ctx, s.qtyKey, s.name)
					}
					continue
				}
				p.HSet(ctx, s.countKey, s.name, n)
				if s.qtyKey != "" {
					q := parseQty(cast.ToString(first(qtys[i]))).Add(dl.qty)
					p.HSet(ctx, s.qtyKey, s.name, q.String())
				}
			}
			return nil
		})
		return err
	}

	var err error
	for range maxTxRetries {
		err = c.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}

func first(cmd *redis.SliceCmd) any {
	if cmd == nil || len(cmd.Val()) == 0 {
		return nil
	}
	return cmd.Val()[0]
}

func (c *Counter) Global(ctx context.Context) (*domain.Statistics, error) {
	st, err := c.read(ctx, c.globalScope())
	if err != nil {
		return nil, err
	}
	n, err := c.rdb.HLen(ctx, c.familiesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read families: %w", err)
	}
	st.TotalFamilies = n
	return st, nil
}

func (c *Counter) Family(ctx context.Context, familyName string) (*domain.Statistics, error) {
	st, err := c.read(ctx, c.familyScope(familyName))
	if err != nil {
		return nil, err
	}
	st.TotalFamilies = 1
	return st, nil
}

func (c *Counter) read(ctx context.Context, scope string) (*domain.Statistics, error) {
	p := c.rdb.Pipeline()
	tc := p.HGetAll(ctx, scope+":"+typeCount)
	tq := p.HGetAll(ctx, scope+":"+typeQty)
	sk := p.HGetAll(ctx, scope+":"+statusCount)
	sq := p.HGetAll(ctx, scope+":"+statusQty)
	if _, err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	st := domain.NewStatistics()
	for k, v := range tc.Val() {
		st.CountByWasteType[k] = cast.ToInt64(v)
	}
	for k, v := range tq.Val() {
		st.QuantityByWasteType[k] = parseQty(v).InexactFloat64()
	}
	for k, v := range sk.Val() {
		n := cast.ToInt64(v)
		st.CountByStatus[k] = n
		st.TotalEntries += n
		switch domain.WasteStatus(k) {
		case domain.StatusPending:
			st.PendingEntries = n
		case domain.StatusProcessing:
			st.ProcessingEntries = n
		case domain.StatusRecycled:
			st.RecycledEntries = n
		}
	}
	total := decimal.Zero
	for k, v := range sq.Val() {
		d := parseQty(v)
		st.QuantityByStatus[k] = d.InexactFloat64()
		total = total.Add(d)
	}
	st.TotalQuantity = total.InexactFloat64()
	return st, nil
}

func parseQty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Rebuild 清空前缀下所有计数并按当前记录重新累加
func (c *Counter) Rebuild(ctx context.Context, entries []domain.WasteEntry) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+":*", 200).Result()
		if err != nil {
			return fmt.Errorf("scan stats keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("drop stats keys: %w", err)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	d := deltas{}
	for i := range entries {
		c.collect(d, &entries[i], 1)
	}
	slots := make([]slot, 0, len(d))
	for s := range d {
		slots = append(slots, s)
	}

	const batch = 500
	for i := 0; i < len(slots); i += batch {
		chunk := slots[i:min(i+batch, len(slots))]
		_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			for _, s := range chunk {
				dl := d[s]
				p.HSet(ctx, s.countKey, s.name, dl.n)
				if s.qtyKey != "" {
					p.HSet(ctx, s.qtyKey, s.name, dl.qty.String())
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("rebuild stats: %w", err)
		}
	}
	return nil
}
