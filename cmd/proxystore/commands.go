package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"proxystore/internal/loader"
	"proxystore/internal/model"
	"proxystore/internal/storage"
)

const usage = `usage: proxystore [-table NAME] [-value V] [-debug] <command> [args]

commands:
  all                 print every entry (default)
  get KEY             print the value of KEY
  put KEY [VALUE]     set KEY (VALUE defaults to 1)
  delete KEY          remove KEY
  update KEY DELTA    add DELTA to the counter of KEY
  pop                 remove and print a random entry
  exists KEY          report whether KEY is present
  size                print the number of entries
  load FILE           put every ip:port line of FILE ("-" for stdin)`

type popResult struct {
	*model.Entry
	Score *int64 `json:"score,omitempty"`
}

// run executes one command against c and writes its JSON result to out.
func run(ctx context.Context, c *storage.Client, args []string, value string, out io.Writer) error {
	cmd := "all"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: expected %d argument(s), got %d\n%s", cmd, n, len(args), usage)
		}
		return nil
	}

	var result any
	switch cmd {
	case "all":
		all, err := c.GetAll(ctx)
		if err != nil {
			return err
		}
		result = all

	case "get":
		if err := need(1); err != nil {
			return err
		}
		v, ok, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if ok {
			result = v
		}

	case "put":
		v := model.DefaultScore
		if len(args) == 2 {
			v, args = args[1], args[:1]
		}
		if err := need(1); err != nil {
			return err
		}
		created, err := c.Put(ctx, args[0], v)
		if err != nil {
			return err
		}
		result = map[string]bool{"created": created}

	case "delete":
		if err := need(1); err != nil {
			return err
		}
		if err := c.Delete(ctx, args[0]); err != nil {
			return err
		}
		result = map[string]string{"deleted": args[0]}

	case "update":
		if err := need(2); err != nil {
			return err
		}
		delta, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("update: invalid delta %q: %w", args[1], err)
		}
		if err := c.Update(ctx, args[0], delta); err != nil {
			return err
		}
		v, _, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		result = map[string]string{args[0]: v}

	case "pop":
		if err := need(0); err != nil {
			return err
		}
		e, err := c.Pop(ctx)
		if err != nil {
			return err
		}
		if e != nil {
			res := popResult{Entry: e}
			if n, ok := e.Score(); ok {
				res.Score = &n
			}
			result = res
		}

	case "exists":
		if err := need(1); err != nil {
			return err
		}
		ok, err := c.Exists(ctx, args[0])
		if err != nil {
			return err
		}
		result = ok

	case "size":
		if err := need(0); err != nil {
			return err
		}
		n, err := c.GetSize(ctx)
		if err != nil {
			return err
		}
		result = n

	case "load":
		if err := need(1); err != nil {
			return err
		}
		res, err := loader.LoadFile(ctx, c, args[0], value)
		if err != nil {
			return err
		}
		result = res

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
