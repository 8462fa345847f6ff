// waydroid-log-parser splits a waydroid-session-manager/waydroid-binder
// logrus log by android uid, bucketing every binder transaction code seen
// for that uid into its own uid_<N> file.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	uidPattern  = regexp.MustCompile(`uid=[0-9]+`)
	codePattern = regexp.MustCompile(`code=[0-9]+`)
)

func parseTrans(infile string, transMap map[int][]int) error {
	file, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	for {
		line, err := reader.ReadSlice('\n')
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("failed to read file %s: %w", infile, err)
		}

		token := uidPattern.Find(line)
		if token == nil {
			continue
		}
		uidStr := strings.TrimPrefix(string(token), "uid=")
		uid64, err := strconv.ParseInt(uidStr, 10, 32)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %w", uidStr, err)
		}
		uid := int(uid64)

		if _, found := transMap[uid]; !found {
			transMap[uid] = []int{}
		}

		token = codePattern.Find(line)
		if token == nil {
			continue
		}
		codeStr := strings.TrimPrefix(string(token), "code=")
		code64, err := strconv.ParseInt(codeStr, 10, 32)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %w", codeStr, err)
		}

		transMap[uid] = append(transMap[uid], int(code64))
	}

	return nil
}

func uidTransParser(data []byte, uid int, codes []int, wg *sync.WaitGroup, errch chan error) {
	defer wg.Done()

	outfile := fmt.Sprintf("uid_%d", uid)
	outf, err := os.Create(outfile)
	if err != nil {
		errch <- err
		return
	}
	defer outf.Close()

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		for _, code := range codes {
			token := fmt.Sprintf("code=%d", code)
			if strings.Contains(line, token) {
				if _, err := outf.WriteString(line + "\n"); err != nil {
					errch <- fmt.Errorf("failed to write to file %s: %w", outfile, err)
					return
				}
				break
			}
		}
	}
}

func dumpTrans(infile string, transMap map[int][]int) error {
	var wg sync.WaitGroup

	inData, err := os.ReadFile(infile)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", infile, err)
	}

	errch := make(chan error, len(transMap))

	for uid, codes := range transMap {
		wg.Add(1)
		go uidTransParser(inData, uid, codes, &wg, errch)
	}

	wg.Wait()

	select {
	case err := <-errch:
		return err
	default:
	}

	return nil
}

func usage() {
	fmt.Printf("%s <filename>\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	filename := os.Args[1]

	// maps android uid -> list of binder transaction codes seen for it
	transMap := make(map[int][]int)

	if err := parseTrans(filename, transMap); err != nil {
		fmt.Printf("failed to parse file %s: %v\n", filename, err)
		os.Exit(1)
	}

	if err := dumpTrans(filename, transMap); err != nil {
		fmt.Printf("failed to dump transactions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done.\n")
}
