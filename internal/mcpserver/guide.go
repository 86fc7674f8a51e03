package mcpserver

// MeetingGuide describes how minutebook organizes meetings so that LLM
// consumers can read and edit them correctly.
const MeetingGuide = `# minutebook Meeting Guide

## Hierarchy

- A **project** holds any number of **tracks** (recurring meeting series).
- A track holds numbered **meetings** ("0001", "0002", ...). Numbers are never reused
  while a higher one exists and always grow by one from the highest on disk.
- Projects and tracks are addressed by their **slug** (lowercase, hyphenated). Renaming
  changes the display name only; the slug stays stable.

## Meetings

- Header: topic, date (YYYY-MM-DD), start and end (HH:MM, local), location, Teams link.
- **Sections** are named and ordered. Every item belongs to exactly one section by name.
- **Items** have a description, status, priority (Low, Normal, High), optional assignee
  (roster ID), optional due date, tags and notes.

## Statuses

| Status | Meaning                     | Carried into the next meeting |
|--------|-----------------------------|-------------------------------|
| OPEN   | action still to be done     | yes                           |
| INFO   | information kept on agenda  | yes                           |
| CLOSED | done                        | no                            |

## Creating the next meeting

- Use the ` + "`" + `create_next_meeting` + "`" + ` tool. The date follows the track's recurrence
  (weekly, biweekly, monthly with day clamping) from the latest meeting's date.
- Sections are copied, OPEN and INFO items are copied with fresh IDs, notes stay behind.
- A track without meetings starts from its section templates.

## Notes

- Notes are append-only. A note added after the meeting date is an **addendum**.
- Add notes with the ` + "`" + `add_note` + "`" + ` tool using an item ID from ` + "`" + `read_meeting` + "`" + ` with format=json.

## Finalizing

- ` + "`" + `finalize_meeting` + "`" + ` stamps the meeting once. Finalized meetings reject every edit,
  including new notes. Finalizing again keeps the original stamp.

## Attachments

- ` + "`" + `attach_file` + "`" + ` stores files in the meeting's ` + "`" + `attachments/` + "`" + ` folder.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf, txt, csv, docx, xlsx, pptx.
`
